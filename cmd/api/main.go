// Command api serves the clearing run history over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/openclear/clearing-backend/internal/cli"
	"github.com/openclear/clearing-backend/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseServeFlags()

	cfg, err := config.LoadOrEnvWithPath(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "api server error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "api server error: %v\n", err)
		os.Exit(1)
	}
}

package cli

import (
	"flag"
	"strings"

	"github.com/openclear/clearing-backend/internal/application/runner"
)

// ClearingFlags are the flags for the clearing command
type ClearingFlags struct {
	ConfigPath string
	RulesPath  string
	DryRun     bool
	Entities   string
	Verbose    bool
}

// ParseClearingFlags parses the clearing command line
func ParseClearingFlags() ClearingFlags {
	var flags ClearingFlags
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Configuration file path")
	flag.StringVar(&flags.RulesPath, "rules", "", "Clearing rules file (overrides config)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Match and report without posting")
	flag.StringVar(&flags.Entities, "entities", "", "Comma-separated entity codes (empty = all)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToRunnerOptions converts ClearingFlags to runner.Options
func (f ClearingFlags) ToRunnerOptions() runner.Options {
	opts := runner.Options{DryRun: f.DryRun}
	if f.Entities != "" {
		for _, e := range strings.Split(f.Entities, ",") {
			if e = strings.TrimSpace(e); e != "" {
				opts.Entities = append(opts.Entities, e)
			}
		}
	}
	return opts
}

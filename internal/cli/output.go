package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openclear/clearing-backend/internal/application/runner"
)

// PrintHeader prints the application header
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("gl-clearing (%s mode)\n", mode)
}

// PrintRunSummary prints the per-entity outcome of a clearing run
func PrintRunSummary(result *runner.Result) {
	fmt.Println(strings.Repeat("-", 60))

	entities := make([]string, 0, len(result.Outcomes))
	for e := range result.Outcomes {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	var matched, posted, failed int
	for _, entity := range entities {
		o := result.Outcomes[entity]
		switch {
		case o.State.NoOpenItems:
			fmt.Printf("  %s: no open items\n", entity)
		case o.Err != nil:
			fmt.Printf("  %s: FAILED (%v)\n", entity, o.Err)
		case !o.State.Exported:
			fmt.Printf("  %s: export failed\n", entity)
		default:
			fmt.Printf("  %s: items=%d matched=%d posted=%d errors=%d\n",
				entity, len(o.Table), o.MatchedCount, o.PostedCount, o.FailedCount)
		}
		matched += o.MatchedCount
		posted += o.PostedCount
		failed += o.FailedCount
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Run %s: Matched=%d Posted=%d Errors=%d\n", result.RunID, matched, posted, failed)
	if result.DryRun {
		fmt.Println("Dry run: nothing was posted")
	}
}

package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// matchCumulativeSum matches the longest value-date prefix of an account
// whose running signed sum returns to zero.
//
// Items are stably ordered by value date, the running sum is rounded to 2
// decimal places at every position, and everything up to and including the
// last zero crossing is matched. Intermediate nonzero partial sums do not
// matter: once a later crossing occurs, the whole prefix nets out. With no
// crossing nothing is matched.
func matchCumulativeSum(t ledger.Table, idxs []int) error {
	if len(idxs) == 0 {
		return ErrNoItems
	}

	ordered := make([]int, len(idxs))
	copy(ordered, idxs)
	sort.SliceStable(ordered, func(a, b int) bool {
		return t[ordered[a]].ValueDate.Before(t[ordered[b]].ValueDate)
	})

	running := decimal.Zero
	lastZero := -1
	for pos, i := range ordered {
		running = running.Add(t[i].Amount)
		if running.Round(2).IsZero() {
			lastZero = pos
		}
	}

	if lastZero < 0 {
		return nil
	}
	for pos := 0; pos <= lastZero; pos++ {
		markMatched(t, ordered[pos])
	}
	return nil
}

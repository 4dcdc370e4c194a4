package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// matchOldestAssignment matches items whose counterparts recur under the
// same assignment.
//
// Phase one matches whole (currency, absolute amount, assignment) groups
// whose signed amounts net to zero. Phase two handles groups that do not
// net out but contain the same magnitude with both signs: it repeatedly
// pairs the k oldest positive with the k oldest negative items, k being the
// smaller side's count. Items whose counterpart magnitude never recurs are
// marked processed without a match and never revisited.
func matchOldestAssignment(t ledger.Table, idxs []int) error {
	if len(idxs) == 0 {
		return ErrNoItems
	}

	// phase one: single +/- amounts netting to zero per group
	groups := groupBy(t, idxs, func(it ledger.Item) (string, bool) {
		return it.Currency + "\x00" + it.AbsAmount.String() + "\x00" + it.Assignment, true
	})
	for _, group := range groups {
		if ledger.SumsToZero(sumAmounts(t, group)) {
			for _, i := range group {
				markMatched(t, i)
			}
		}
	}

	// phase two: remaining multi +/- amounts, oldest documents first
	for _, curr := range currenciesOf(t, idxs) {
		var remaining []int
		for _, i := range idxs {
			if !t[i].Processed && t[i].Currency == curr {
				remaining = append(remaining, i)
			}
		}

		for _, pair := range duplicateAmountPairs(t, remaining) {
			var positive, negative []int
			for _, i := range remaining {
				if t[i].Assignment != pair.assignment {
					continue
				}
				switch {
				case t[i].Amount.Equal(pair.amount):
					positive = append(positive, i)
				case t[i].Amount.Equal(pair.amount.Neg()):
					negative = append(negative, i)
				}
			}

			k := min(len(positive), len(negative))
			if k == 0 {
				// only one sign present: no counterpart will ever turn up
				for _, i := range positive {
					t[i].Processed = true
				}
				for _, i := range negative {
					t[i].Processed = true
				}
				continue
			}

			for _, i := range oldestByDocumentDate(t, positive, k) {
				markMatched(t, i)
			}
			for _, i := range oldestByDocumentDate(t, negative, k) {
				markMatched(t, i)
			}
		}
	}

	return nil
}

type amountPair struct {
	amount     decimal.Decimal // positive magnitude
	assignment string
}

// duplicateAmountPairs returns the (magnitude, assignment) pairs of items
// whose absolute amount occurs more than once in the given set, first
// occurrence order, deduplicated.
func duplicateAmountPairs(t ledger.Table, idxs []int) []amountPair {
	seen := make(map[string]bool)
	taken := make(map[string]bool)
	var pairs []amountPair

	for _, i := range idxs {
		abs := t[i].AbsAmount.String()
		if !seen[abs] {
			seen[abs] = true
			continue
		}
		key := abs + "\x00" + t[i].Assignment
		if taken[key] {
			continue
		}
		taken[key] = true
		pairs = append(pairs, amountPair{amount: t[i].AbsAmount, assignment: t[i].Assignment})
	}
	return pairs
}

// oldestByDocumentDate picks the k oldest-dated items, ties broken by the
// order the indexes arrive in.
func oldestByDocumentDate(t ledger.Table, idxs []int, k int) []int {
	ordered := make([]int, len(idxs))
	copy(ordered, idxs)
	sort.SliceStable(ordered, func(a, b int) bool {
		return t[ordered[a]].DocumentDate.Before(t[ordered[b]].DocumentDate)
	})
	return ordered[:k]
}

// currenciesOf returns the currencies of unprocessed items, first
// occurrence order.
func currenciesOf(t ledger.Table, idxs []int) []string {
	seen := make(map[string]bool)
	var currs []string
	for _, i := range idxs {
		if t[i].Processed || seen[t[i].Currency] {
			continue
		}
		seen[t[i].Currency] = true
		currs = append(currs, t[i].Currency)
	}
	return currs
}

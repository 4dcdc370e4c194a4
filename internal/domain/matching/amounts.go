package matching

import (
	"github.com/shopspring/decimal"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// matchAmounts is the general criteria cascade, and the second half of the
// trading-partner strategy when partner filter values are given.
//
// The cascade tries, in order:
//
//	(a) the whole currency subset nets to zero,
//	(b) (currency, absolute amount) groups that net to zero,
//	(c) per remaining configured criterion, (currency, criterion value)
//	    groups that net to zero, each criterion only seeing items the
//	    previous steps left unprocessed.
//
// With a partner filter, only items whose trading partner is in the filter
// set are candidates at all; the rest of the account stays unmatched.
func matchAmounts(t ledger.Table, idxs []int, crits []Criterion, partners []string) error {
	if len(idxs) == 0 {
		return ErrNoItems
	}

	candidates := idxs
	if len(partners) > 0 {
		allowed := make(map[string]bool, len(partners))
		for _, p := range partners {
			allowed[p] = true
		}
		candidates = nil
		for _, i := range idxs {
			if allowed[t[i].TradingPartner] {
				candidates = append(candidates, i)
			}
		}
	}

	// (a) whole currency subset nets to zero
	matchZeroSumGroups(t, candidates, func(it ledger.Item) (string, bool) {
		return it.Currency, true
	})
	if allProcessed(t, candidates) {
		return nil
	}

	// (b) equal magnitudes with both signs
	matchZeroSumGroups(t, candidates, func(it ledger.Item) (string, bool) {
		return it.Currency + "\x00" + it.AbsAmount.String(), true
	})

	// (c) leftover items under each additional criterion, rule order
	for _, crit := range crits {
		crit := crit
		matchZeroSumGroups(t, candidates, func(it ledger.Item) (string, bool) {
			key, ok := crit.groupKey(it)
			if !ok {
				return "", false
			}
			return it.Currency + "\x00" + key, true
		})
	}

	return nil
}

// matchZeroSumGroups groups the unprocessed items by key and matches every
// group whose signed amounts net to zero.
func matchZeroSumGroups(t ledger.Table, idxs []int, key func(ledger.Item) (string, bool)) {
	groups := groupBy(t, idxs, key)
	for _, group := range groups {
		if ledger.SumsToZero(sumAmounts(t, group)) {
			for _, i := range group {
				markMatched(t, i)
			}
		}
	}
}

// groupBy bins unprocessed item indexes by key, preserving first-occurrence
// group order and in-group item order. Items for which the key function
// reports false are left out.
func groupBy(t ledger.Table, idxs []int, key func(ledger.Item) (string, bool)) [][]int {
	order := make(map[string]int)
	var groups [][]int

	for _, i := range idxs {
		if t[i].Processed {
			continue
		}
		k, ok := key(t[i])
		if !ok {
			continue
		}
		pos, seen := order[k]
		if !seen {
			pos = len(groups)
			order[k] = pos
			groups = append(groups, nil)
		}
		groups[pos] = append(groups[pos], i)
	}
	return groups
}

func sumAmounts(t ledger.Table, idxs []int) decimal.Decimal {
	sum := decimal.Zero
	for _, i := range idxs {
		sum = sum.Add(t[i].Amount)
	}
	return sum
}

func allProcessed(t ledger.Table, idxs []int) bool {
	for _, i := range idxs {
		if !t[i].Processed {
			return false
		}
	}
	return true
}

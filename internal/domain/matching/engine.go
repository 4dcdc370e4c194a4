// Package matching partitions one entity's open items into zero-sum groups
// according to per-account matching rules.
//
// Five mutually exclusive strategies exist. When an account's rule lists
// several strategy-selecting criteria, the first applicable one in this
// fixed priority wins:
//
//  1. oldest assignment
//  2. cumulative sum
//  3. deal number
//  4. trading-partner filtered amounts
//  5. general amounts cascade (the default)
//
// All strategies share one acceptance test: the signed amounts of a group,
// summed and rounded to 2 decimal places, must be exactly zero.
package matching

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
	"github.com/openclear/clearing-backend/internal/domain/rules"
)

// ErrNoItems reports an empty item set reaching a matcher. It indicates an
// upstream filtering bug, not a legitimate "nothing matched" outcome.
var ErrNoItems = errors.New("no items to match")

// ConfigError reports an account rule with no recognizable matching
// criterion. It is fatal: the engine never silently skips the account.
type ConfigError struct {
	Account string
	Code    string
}

func (e *ConfigError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("account %s: no matching criteria configured", e.Account)
	}
	return fmt.Sprintf("account %s: unknown matching criterion %q", e.Account, e.Code)
}

// Engine applies account-specific matching strategies to an entity's items.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a matching engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// FindMatches returns a copy of the table with the Matched, Processed,
// Excluded and Message fields filled in per the entity's account rules.
//
// Items are first stably sorted by (account, currency, absolute amount,
// posting date) so every strategy sees a deterministic tie-break order.
// Items on inactive accounts are left untouched.
func (e *Engine) FindMatches(table ledger.Table, set rules.Set, entity string) (ledger.Table, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("entity %s: %w", entity, ErrNoItems)
	}

	entityRules, ok := set[entity]
	if !ok {
		return nil, fmt.Errorf("no clearing rules loaded for entity %s", entity)
	}

	result := table.Clone()
	sortTable(result)

	for _, span := range accountSpans(result) {
		account := result[span.start].Account

		cfg, known := entityRules.Accounts[account]
		if !known || !cfg.Active {
			// inactive accounts stay unmatched
			continue
		}

		rule, err := parseRule(account, cfg.Criteria)
		if err != nil {
			return nil, err
		}

		idxs := make([]int, 0, span.end-span.start)
		for i := span.start; i < span.end; i++ {
			idxs = append(idxs, i)
		}

		e.logger.Debug("Matching account items",
			"entity", entity, "account", account, "items", len(idxs))

		switch {
		case rule.contains(CriterionOldestAssignment):
			err = matchOldestAssignment(result, idxs)
		case rule.contains(CriterionCumulativeSum):
			err = matchCumulativeSum(result, idxs)
		case rule.contains(CriterionDealNumber):
			err = matchDealNumber(result, idxs, entity)
		case rule.contains(CriterionTradingPartner):
			err = matchAmounts(result, idxs, rule.criteria, rule.partners)
		default:
			err = matchAmounts(result, idxs, rule.criteria, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("entity %s account %s: %w", entity, account, err)
		}
	}

	return result, nil
}

// sortTable orders items by (account, currency, absolute amount, posting
// date). The sort must be stable: downstream tie-breaks depend on original
// order surviving equal keys.
func sortTable(t ledger.Table) {
	sort.SliceStable(t, func(i, j int) bool {
		a, b := &t[i], &t[j]
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		if cmp := a.AbsAmount.Cmp(b.AbsAmount); cmp != 0 {
			return cmp < 0
		}
		return a.PostingDate.Before(b.PostingDate)
	})
}

type span struct{ start, end int }

// accountSpans returns the consecutive index ranges of each account in a
// sorted table.
func accountSpans(t ledger.Table) []span {
	var spans []span
	start := 0
	for i := 1; i <= len(t); i++ {
		if i == len(t) || t[i].Account != t[start].Account {
			spans = append(spans, span{start: start, end: i})
			start = i
		}
	}
	return spans
}

// markMatched flags an item as part of a zero-sum group. Matched always
// implies Processed.
func markMatched(t ledger.Table, idx int) {
	t[idx].Matched = true
	t[idx].Processed = true
}

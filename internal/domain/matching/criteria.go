package matching

import (
	"fmt"
	"strings"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// Criterion is one recognized matching criterion. The set is closed: an
// account rule carrying an unknown code is a configuration error, never a
// silent skip.
type Criterion int

const (
	CriterionAssignment Criterion = iota
	CriterionCumulativeSum
	CriterionDocumentNumber
	CriterionOldestAssignment
	CriterionTradingPartner
	CriterionReference
	CriterionText
	CriterionDealNumber
)

// criterion codes as they appear in rule files
var criterionCodes = map[string]Criterion{
	"A": CriterionAssignment,
	"C": CriterionCumulativeSum,
	"D": CriterionDocumentNumber,
	"O": CriterionOldestAssignment,
	"P": CriterionTradingPartner,
	"R": CriterionReference,
	"T": CriterionText,
	"X": CriterionDealNumber,
}

func (c Criterion) String() string {
	switch c {
	case CriterionAssignment:
		return "assignment"
	case CriterionCumulativeSum:
		return "cumulative-sum"
	case CriterionDocumentNumber:
		return "document-number"
	case CriterionOldestAssignment:
		return "oldest-assignment"
	case CriterionTradingPartner:
		return "trading-partner"
	case CriterionReference:
		return "reference"
	case CriterionText:
		return "text"
	case CriterionDealNumber:
		return "deal-number"
	}
	return fmt.Sprintf("criterion(%d)", int(c))
}

// groupKey returns the item field a criterion groups by in the amounts
// cascade. Criteria that select a whole strategy rather than a grouping
// field (cumulative sum, oldest assignment) have no key.
func (c Criterion) groupKey(it ledger.Item) (string, bool) {
	switch c {
	case CriterionAssignment:
		return it.Assignment, true
	case CriterionDocumentNumber:
		return it.DocumentNumber, true
	case CriterionTradingPartner:
		return it.TradingPartner, true
	case CriterionReference:
		return it.Reference, true
	case CriterionText:
		return it.Text, true
	case CriterionDealNumber:
		return it.DealNumber, true
	}
	return "", false
}

// accountRule is the parsed form of one account's criterion code list.
type accountRule struct {
	criteria []Criterion
	// partner filter values embedded in a P_... code, e.g. "P_1001_1002"
	partners []string
}

func (r accountRule) contains(c Criterion) bool {
	for _, crit := range r.criteria {
		if crit == c {
			return true
		}
	}
	return false
}

// parseRule resolves an account's raw criterion codes. A code may carry
// underscore-separated parameters after the criterion letter.
func parseRule(account string, codes []string) (accountRule, error) {
	if len(codes) == 0 {
		return accountRule{}, &ConfigError{Account: account}
	}

	var rule accountRule
	for _, code := range codes {
		tokens := strings.Split(code, "_")
		crit, ok := criterionCodes[tokens[0]]
		if !ok {
			return accountRule{}, &ConfigError{Account: account, Code: code}
		}
		rule.criteria = append(rule.criteria, crit)
		if crit == CriterionTradingPartner && len(tokens) > 1 {
			rule.partners = tokens[1:]
		}
	}
	return rule, nil
}

package matching

import (
	"strings"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// entityDealPrefixExclusion names the one entity whose matched items are
// excluded from clearing unless their deal number carries this prefix.
// Such items stay matched but are intentionally not posted.
const (
	dealExclusionEntity = "499L"
	dealRequiredPrefix  = "60"
)

const dealExclusionMessage = "Excluded from clearing based on deal number criteria."

// matchDealNumber matches (currency, deal number) groups whose signed
// amounts net to zero. Items without an extracted deal number never take
// part. For the designated entity, matched items whose deal number lacks
// the required prefix are additionally marked excluded.
func matchDealNumber(t ledger.Table, idxs []int, entity string) error {
	if len(idxs) == 0 {
		return ErrNoItems
	}

	groups := groupBy(t, idxs, func(it ledger.Item) (string, bool) {
		if it.DealNumber == "" {
			return "", false
		}
		return it.Currency + "\x00" + it.DealNumber, true
	})
	for _, group := range groups {
		if ledger.SumsToZero(sumAmounts(t, group)) {
			for _, i := range group {
				markMatched(t, i)
			}
		}
	}

	if entity == dealExclusionEntity {
		for _, i := range idxs {
			if t[i].Matched && t[i].DealNumber != "" &&
				!strings.HasPrefix(t[i].DealNumber, dealRequiredPrefix) {
				t[i].Excluded = true
				t[i].Message = dealExclusionMessage
			}
		}
	}

	return nil
}

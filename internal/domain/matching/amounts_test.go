package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

func TestMatchAmounts_WholeCurrencyNetsToZero(t *testing.T) {
	table := ledger.Table{
		testItem("A", "EUR", "70"),
		testItem("A", "EUR", "30"),
		testItem("A", "EUR", "-100"),
	}

	err := matchAmounts(table, []int{0, 1, 2}, nil, nil)
	require.NoError(t, err)

	for i := range table {
		assert.True(t, table[i].Matched, "item %d", i)
	}
}

func TestMatchAmounts_EqualMagnitudePairs(t *testing.T) {
	table := ledger.Table{
		testItem("A", "EUR", "100"),
		testItem("A", "EUR", "-100"),
		testItem("A", "EUR", "42"),
	}

	err := matchAmounts(table, []int{0, 1, 2}, nil, nil)
	require.NoError(t, err)

	assert.True(t, table[0].Matched)
	assert.True(t, table[1].Matched)
	assert.False(t, table[2].Matched)
}

func TestMatchAmounts_CriterionGroupsSeeOnlyLeftovers(t *testing.T) {
	// the 100/-100 pair resolves in the magnitude step; the assignment
	// step then nets the remaining three items under assignment G
	table := ledger.Table{
		testItem("A", "EUR", "100", withAssignment("G")),
		testItem("A", "EUR", "-100", withAssignment("G")),
		testItem("A", "EUR", "60", withAssignment("G")),
		testItem("A", "EUR", "15", withAssignment("G")),
		testItem("A", "EUR", "-75", withAssignment("G")),
		testItem("A", "EUR", "9", withAssignment("H")),
	}
	idxs := []int{0, 1, 2, 3, 4, 5}

	err := matchAmounts(table, idxs, []Criterion{CriterionAssignment}, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.True(t, table[i].Matched, "item %d", i)
	}
	assert.False(t, table[5].Matched)
}

func TestMatchAmounts_CriteriaApplyInRuleOrder(t *testing.T) {
	// under assignment the items do not net out, under reference they do
	table := ledger.Table{
		testItem("A", "EUR", "30", withAssignment("A1"), withReference("R1")),
		testItem("A", "EUR", "50", withAssignment("A2"), withReference("R1")),
		testItem("A", "EUR", "-80", withAssignment("A3"), withReference("R1")),
		testItem("A", "EUR", "7", withAssignment("A9"), withReference("R9")),
	}

	err := matchAmounts(table, []int{0, 1, 2, 3}, []Criterion{CriterionAssignment, CriterionReference}, nil)
	require.NoError(t, err)

	assert.True(t, table[0].Matched)
	assert.True(t, table[1].Matched)
	assert.True(t, table[2].Matched)
	assert.False(t, table[3].Matched)
}

func TestMatchAmounts_PartnerFilter(t *testing.T) {
	table := ledger.Table{
		testItem("A", "EUR", "100", withPartner("1001")),
		testItem("A", "EUR", "-100", withPartner("1002")),
		testItem("A", "EUR", "100", withPartner("9999")),
		testItem("A", "EUR", "-100", withPartner("9999")),
	}

	err := matchAmounts(table, []int{0, 1, 2, 3}, nil, []string{"1001", "1002"})
	require.NoError(t, err)

	assert.True(t, table[0].Matched)
	assert.True(t, table[1].Matched)
	assert.False(t, table[2].Matched, "filtered-out partner must stay open")
	assert.False(t, table[3].Matched, "filtered-out partner must stay open")
}

func TestMatchAmounts_DifferentCurrenciesNeverMix(t *testing.T) {
	table := ledger.Table{
		testItem("A", "EUR", "100"),
		testItem("A", "USD", "-100"),
	}

	err := matchAmounts(table, []int{0, 1}, nil, nil)
	require.NoError(t, err)

	assert.False(t, table[0].Matched)
	assert.False(t, table[1].Matched)
}

func TestMatchAmounts_NoItems(t *testing.T) {
	err := matchAmounts(ledger.Table{}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestGroupBy_SkipsProcessedAndKeepsOrder(t *testing.T) {
	table := ledger.Table{
		testItem("A", "EUR", "1", withAssignment("X")),
		testItem("A", "EUR", "2", withAssignment("Y")),
		testItem("A", "EUR", "3", withAssignment("X")),
	}
	table[1].Processed = true

	groups := groupBy(table, []int{0, 1, 2}, func(it ledger.Item) (string, bool) {
		return it.Assignment, true
	})

	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 2}, groups[0])
}

package ledger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportLine builds one raw item line in the fixed pipe-delimited layout.
func exportLine(curr, account, amount, docNum, docType, docDate, postDate, assignment, reference, partner, text, valueDate string) string {
	return fmt.Sprintf("| %s |%s| %s |%s|%s|%s|%s|%s|%s|%s|%s|%s|",
		curr, account, amount, docNum, docType, docDate, postDate, assignment, reference, partner, text, valueDate)
}

func sampleExport(lines ...string) string {
	header := []string{
		"--------------------------------------------------------------",
		"| Account overview                                            |",
		"|  Crcy  | Account | ... |",
		"--------------------------------------------------------------",
	}
	footer := []string{
		"--------------------------------------------------------------",
		"| Total                                      1.234,56         |",
	}
	return strings.Join(append(append(header, lines...), footer...), "\n")
}

func TestConvert(t *testing.T) {
	raw := sampleExport(
		exportLine("EUR", "24181000", "1.500,00", "1400000001", "SA", "15.01.2024", "16.01.2024", "ASSIGN-1", "REF-1", "1001", "payment run", "16.01.2024"),
		exportLine("EUR", "24181000", "1.500,00-", "1400000002", "SA", "20.01.2024", "21.01.2024", "ASSIGN-1", "REF-2", "1001", "payment run", "21.01.2024"),
	)

	table, err := Convert(raw, "1052")
	require.NoError(t, err)
	require.Len(t, table, 2)

	first := table[0]
	assert.Equal(t, "1052", first.Entity)
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, "24181000", first.Account)
	assert.Equal(t, "1400000001", first.DocumentNumber)
	assert.Equal(t, "SA", first.DocumentType)
	assert.Equal(t, "ASSIGN-1", first.Assignment)
	assert.Equal(t, "REF-1", first.Reference)
	assert.Equal(t, "1001", first.TradingPartner)
	assert.Equal(t, "payment run", first.Text)
	assert.Equal(t, "1500", first.Amount.String())
	assert.Equal(t, "1500", first.AbsAmount.String())
	assert.Equal(t, "15.01.2024", FormatDate(first.DocumentDate))
	assert.Equal(t, "16.01.2024", FormatDate(first.PostingDate))
	assert.Equal(t, "16.01.2024", FormatDate(first.ValueDate))

	assert.True(t, table[1].Amount.IsNegative())
}

func TestConvert_AssignmentKeepsLeadingWhitespace(t *testing.T) {
	raw := sampleExport(
		exportLine("EUR", "24181000", "100,00", "1400000001", "SA", "15.01.2024", "16.01.2024", "  PADDED  ", "REF", "", "txt", "16.01.2024"),
	)

	table, err := Convert(raw, "1052")
	require.NoError(t, err)
	require.Len(t, table, 1)

	// trailing whitespace is stripped, leading whitespace is data
	assert.Equal(t, "  PADDED", table[0].Assignment)
}

func TestConvert_DealNumberExtraction(t *testing.T) {
	t.Run("499L trailing 13 digits", func(t *testing.T) {
		raw := sampleExport(
			exportLine("EUR", "24181000", "100,00", "1", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "FX trade 6012345678901", "16.01.2024"),
			exportLine("EUR", "24181000", "100,00", "2", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "no deal here", "16.01.2024"),
		)

		table, err := Convert(raw, "499L")
		require.NoError(t, err)
		assert.Equal(t, "6012345678901", table[0].DealNumber)
		assert.Empty(t, table[1].DealNumber)
	})

	t.Run("0073 digits after semicolon", func(t *testing.T) {
		raw := sampleExport(
			exportLine("EUR", "24181000", "100,00", "1", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "swap;778899", "16.01.2024"),
		)

		table, err := Convert(raw, "0073")
		require.NoError(t, err)
		assert.Equal(t, "778899", table[0].DealNumber)
	})

	t.Run("other entities never extract", func(t *testing.T) {
		raw := sampleExport(
			exportLine("EUR", "24181000", "100,00", "1", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "swap;778899", "16.01.2024"),
		)

		table, err := Convert(raw, "1052")
		require.NoError(t, err)
		assert.Empty(t, table[0].DealNumber)
	})
}

func TestConvert_NoItemLines(t *testing.T) {
	_, err := Convert(sampleExport(), "1052")
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "1052", convErr.Entity)
}

func TestConvert_UnparsableAmount(t *testing.T) {
	raw := sampleExport(
		exportLine("EUR", "24181000", "not-an-amount", "1", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "txt", "16.01.2024"),
	)

	_, err := Convert(raw, "1052")
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)

	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestConvert_IgnoresMalformedLines(t *testing.T) {
	raw := sampleExport(
		"| EUR |24181000| too few fields |",
		exportLine("EUR", "24181000", "100,00", "1", "SA", "15.01.2024", "16.01.2024", "A", "R", "", "txt", "16.01.2024"),
	)

	table, err := Convert(raw, "1052")
	require.NoError(t, err)
	assert.Len(t, table, 1)
}

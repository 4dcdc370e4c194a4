// Package clearing turns matched open items into the compact per-account,
// per-currency groupings a posting call consumes.
package clearing

import (
	"github.com/shopspring/decimal"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// Group is the clearing input for one account and currency: the selected
// items' identifying values in parallel slices, plus the originating row
// indexes so the caller can write posting results back onto the table.
//
// UniqueAssignments and UniqueReferences double as selection keys for the
// posting system. They are nil whenever any item in the group has an empty
// value for that field: selecting by a key some items lack would load the
// wrong item set, so a nil slice signals "selection by this key is unsafe".
type Group struct {
	Amounts               []decimal.Decimal
	DocumentNumbers       []string
	DocumentTypes         []string
	DocumentDates         []string
	PostingDates          []string
	UniqueAssignments     []string
	UniqueReferences      []string
	UniqueDocumentNumbers []string
	Assignments           []string
	Texts                 []string
	TradingPartners       []string
	Indexes               []int
}

// Input maps account id, then currency, to the clearing group.
type Input map[string]map[string]Group

// One account is too large for selection by assignment or reference to
// complete in reasonable time; items there are always selected by document
// number instead.
const (
	bulkEntity  = "0073"
	bulkAccount = "24182000"
)

// Build collects the matched, non-excluded items of a table into clearing
// groups and returns them together with the total count of items selected
// for clearing. The builder is read-only over its input: calling it twice
// on the same table yields identical groups and index lists.
func Build(table ledger.Table, entity string) (Input, int) {
	input := make(Input)
	total := 0

	for _, account := range accountsOf(table) {
		var clearable []int
		for i := range table {
			if table[i].Account == account && table[i].Matched && !table[i].Excluded {
				clearable = append(clearable, i)
			}
		}
		if len(clearable) == 0 {
			continue
		}

		total += len(clearable)
		input[account] = make(map[string]Group)

		for _, curr := range currenciesOf(table, clearable) {
			var rows []int
			for _, i := range clearable {
				if table[i].Currency == curr {
					rows = append(rows, i)
				}
			}

			group := buildGroup(table, rows)

			if entity == bulkEntity && account == bulkAccount {
				group.UniqueAssignments = nil
				group.UniqueReferences = nil
			}

			input[account][curr] = group
		}
	}

	return input, total
}

func buildGroup(table ledger.Table, rows []int) Group {
	group := Group{
		Amounts:         make([]decimal.Decimal, 0, len(rows)),
		DocumentNumbers: make([]string, 0, len(rows)),
		DocumentTypes:   make([]string, 0, len(rows)),
		DocumentDates:   make([]string, 0, len(rows)),
		PostingDates:    make([]string, 0, len(rows)),
		Assignments:     make([]string, 0, len(rows)),
		Texts:           make([]string, 0, len(rows)),
		TradingPartners: make([]string, 0, len(rows)),
		Indexes:         rows,
	}

	for _, i := range rows {
		it := &table[i]
		group.Amounts = append(group.Amounts, it.Amount)
		group.DocumentNumbers = append(group.DocumentNumbers, it.DocumentNumber)
		group.DocumentTypes = append(group.DocumentTypes, it.DocumentType)
		group.DocumentDates = append(group.DocumentDates, ledger.FormatDate(it.DocumentDate))
		group.PostingDates = append(group.PostingDates, ledger.FormatDate(it.PostingDate))
		group.Assignments = append(group.Assignments, it.Assignment)
		group.Texts = append(group.Texts, it.Text)
		group.TradingPartners = append(group.TradingPartners, it.TradingPartner)
	}

	group.UniqueAssignments = uniqueNonEmpty(group.Assignments)
	group.UniqueReferences = uniqueNonEmpty(referencesOf(table, rows))
	group.UniqueDocumentNumbers = unique(group.DocumentNumbers)

	return group
}

func referencesOf(table ledger.Table, rows []int) []string {
	refs := make([]string, 0, len(rows))
	for _, i := range rows {
		refs = append(refs, table[i].Reference)
	}
	return refs
}

// uniqueNonEmpty deduplicates preserving order, or returns nil when any
// value is empty.
func uniqueNonEmpty(vals []string) []string {
	for _, v := range vals {
		if v == "" {
			return nil
		}
	}
	return unique(vals)
}

func unique(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	var out []string
	for _, v := range vals {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func accountsOf(table ledger.Table) []string {
	seen := make(map[string]bool)
	var accs []string
	for i := range table {
		if seen[table[i].Account] {
			continue
		}
		seen[table[i].Account] = true
		accs = append(accs, table[i].Account)
	}
	return accs
}

func currenciesOf(table ledger.Table, rows []int) []string {
	seen := make(map[string]bool)
	var currs []string
	for _, i := range rows {
		if seen[table[i].Currency] {
			continue
		}
		seen[table[i].Currency] = true
		currs = append(currs, table[i].Currency)
	}
	return currs
}

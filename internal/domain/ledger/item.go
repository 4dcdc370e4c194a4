// Package ledger defines the open-item data model shared by the clearing
// pipeline, plus parsing of the raw ledger export format.
//
// An Item is one open line item on a GL account. Items are converted from
// the raw pipe-delimited export, annotated by the matching engine and the
// posting phase, and finally handed to reporting.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a single open item on a GL account.
//
// The four status fields at the bottom are the only mutable state in the
// pipeline: Matched marks an item as part of a zero-sum group, Processed is
// internal matching bookkeeping (Matched implies Processed), Excluded marks
// an item that was matched but intentionally left uncleared, and Message
// records the human-readable outcome of the posting phase.
type Item struct {
	Entity         string
	Account        string
	Currency       string
	Amount         decimal.Decimal
	AbsAmount      decimal.Decimal
	DocumentNumber string
	DocumentType   string
	DocumentDate   time.Time
	PostingDate    time.Time
	ValueDate      time.Time
	Assignment     string
	Reference      string
	TradingPartner string
	Text           string
	DealNumber     string // empty when no deal number could be extracted
	PostingNumber  string // filled in by the posting phase

	Matched   bool
	Processed bool
	Excluded  bool
	Message   string
}

// Table is an ordered collection of open items for one entity.
type Table []Item

// Clone returns a deep copy of the table. The matching engine and the
// posting phase annotate tables in place, so callers that need the original
// untouched must hand over a clone.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// AnyMatched reports whether at least one item in the table is matched.
func (t Table) AnyMatched() bool {
	for i := range t {
		if t[i].Matched {
			return true
		}
	}
	return false
}

// ClearableCount returns the number of matched items that are not excluded
// from clearing.
func (t Table) ClearableCount() int {
	n := 0
	for i := range t {
		if t[i].Matched && !t[i].Excluded {
			n++
		}
	}
	return n
}

// SumsToZero reports whether an amount nets out under the clearing
// tolerance: the sum rounded to 2 decimal places must be exactly zero.
func SumsToZero(sum decimal.Decimal) bool {
	return sum.Round(2).IsZero()
}

package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ConversionError reports a raw export from which no item lines could be
// recovered, or an item line whose amount field could not be parsed. It is
// fatal to the affected entity only; other entities keep processing.
type ConversionError struct {
	Entity string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("converting export for entity %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("no item lines recovered from export for entity %s", e.Entity)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// itemLine matches one open-item data line of the raw export: a leading
// currency token, an account token, then the remaining pipe-delimited
// fields. Header, footer and separator lines do not match.
var itemLine = regexp.MustCompile(`^\|\s+\w{3}\s+\|\w+\s*\|.*\|$`)

// deal-number extraction is entity specific
var (
	dealNumber499L = regexp.MustCompile(`(\d{13})$`)
	dealNumber0073 = regexp.MustCompile(`;(\d+)$`)
)

// column layout of one item line after splitting on '|'
const itemFieldCount = 12

// Convert turns a raw ledger export into a table of typed open items for
// one entity. Only lines of the fixed item shape are considered; all other
// lines (headers, separators, totals) are ignored. Returns a ConversionError
// when no item line could be recovered.
func Convert(raw string, entity string) (Table, error) {
	var table Table

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !itemLine.MatchString(line) {
			continue
		}

		// drop the outer pipes, then split into the fixed columns
		fields := strings.Split(line[1:len(line)-1], "|")
		if len(fields) != itemFieldCount {
			continue
		}

		item, err := convertLine(fields, entity)
		if err != nil {
			return nil, &ConversionError{Entity: entity, Err: err}
		}
		table = append(table, item)
	}

	if len(table) == 0 {
		return nil, &ConversionError{Entity: entity}
	}
	return table, nil
}

func convertLine(fields []string, entity string) (Item, error) {
	// All fields are trimmed except Assignment, which keeps its leading
	// whitespace. Items exist whose assignment was entered with leading
	// spaces; stripping them makes the later selection by assignment in
	// the posting system come up empty.
	item := Item{
		Entity:         entity,
		Currency:       strings.TrimSpace(fields[0]),
		Account:        strings.TrimSpace(fields[1]),
		DocumentNumber: strings.TrimSpace(fields[3]),
		DocumentType:   strings.TrimSpace(fields[4]),
		Assignment:     strings.TrimRightFunc(fields[7], unicode.IsSpace),
		Reference:      strings.TrimSpace(fields[8]),
		TradingPartner: strings.TrimSpace(fields[9]),
		Text:           strings.TrimSpace(fields[10]),
	}

	amount, err := ParseAmount(fields[2])
	if err != nil {
		return Item{}, err
	}
	item.Amount = amount
	item.AbsAmount = amount.Abs()

	item.DocumentDate = ParseDate(fields[5])
	item.PostingDate = ParseDate(fields[6])
	item.ValueDate = ParseDate(fields[11])

	item.DealNumber = extractDealNumber(item.Text, entity)

	return item, nil
}

// extractDealNumber pulls a trade identifier out of the free-text field.
// Only two entities carry deal numbers, each with its own text convention.
func extractDealNumber(text, entity string) string {
	switch entity {
	case "499L":
		if m := dealNumber499L.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	case "0073":
		if m := dealNumber0073.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

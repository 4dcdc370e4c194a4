// Package report renders clearing outcomes for humans: an xlsx workbook
// per entity and an HTML summary table for notifications.
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

// fieldOrder defines the report column layout per entity. Two entities have
// bespoke layouts (deal numbers, value dates); everyone else shares the
// default.
var fieldOrder = map[string][]string{
	"499L": {
		"Account", "Currency", "Amount", "Document Date",
		"Document Number", "Document Type", "Posting Date",
		"Assignment", "Reference", "Trading Partner", "Text",
		"Deal Number", "Match", "Posting Number", "Message",
	},
	"1052": {
		"Account", "Currency", "Amount", "Value Date",
		"Document Number", "Document Type", "Document Date",
		"Posting Date", "Assignment", "Reference", "Trading Partner",
		"Text", "Deal Number", "Match", "Posting Number", "Message",
	},
	"other": {
		"Account", "Currency", "Amount", "Document Number",
		"Document Type", "Document Date", "Posting Date",
		"Assignment", "Reference", "Trading Partner", "Text",
		"Match", "Posting Number", "Message",
	},
}

// FieldOrder returns the report column layout for an entity.
func FieldOrder(entity string) []string {
	if fields, ok := fieldOrder[entity]; ok {
		return fields
	}
	return fieldOrder["other"]
}

// cellValue extracts one report column from an item. Dates come out as
// time.Time so the date cell style applies; missing dates come out nil.
func cellValue(it *ledger.Item, field string) interface{} {
	switch field {
	case "Account":
		return it.Account
	case "Currency":
		return it.Currency
	case "Amount":
		v, _ := it.Amount.Float64()
		return v
	case "Document Number":
		return it.DocumentNumber
	case "Document Type":
		return it.DocumentType
	case "Document Date":
		if it.DocumentDate.IsZero() {
			return nil
		}
		return it.DocumentDate
	case "Posting Date":
		if it.PostingDate.IsZero() {
			return nil
		}
		return it.PostingDate
	case "Value Date":
		if it.ValueDate.IsZero() {
			return nil
		}
		return it.ValueDate
	case "Assignment":
		return it.Assignment
	case "Reference":
		return it.Reference
	case "Trading Partner":
		return it.TradingPartner
	case "Text":
		return it.Text
	case "Deal Number":
		return it.DealNumber
	case "Match":
		return it.Matched
	case "Posting Number":
		return it.PostingNumber
	case "Message":
		return it.Message
	}
	return nil
}

var dateColumns = map[string]bool{
	"Document Date": true,
	"Posting Date":  true,
	"Value Date":    true,
}

// WriteWorkbook writes the annotated item table of one entity into an xlsx
// report at path.
func WriteWorkbook(path, sheet string, table ledger.Table, entity string) error {
	fields := FieldOrder(entity)

	rows := table.Clone()
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		if cmp := a.AbsAmount.Cmp(b.AbsAmount); cmp != 0 {
			return cmp < 0
		}
		return a.PostingNumber < b.PostingNumber
	})

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming report sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"000000"}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	dateFormat := "dd.mm.yyyy"
	dateStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &dateFormat,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	moneyFormat := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &moneyFormat,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	generalStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	// header row
	for col, field := range fields {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, field); err != nil {
			return err
		}
	}

	// data rows
	for rowIdx := range rows {
		for col, field := range fields {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			val := cellValue(&rows[rowIdx], field)
			if val == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	// column styles and widths
	for col, field := range fields {
		name, _ := excelize.ColumnNumberToName(col + 1)

		style := generalStyle
		switch {
		case field == "Amount":
			style = moneyStyle
		case dateColumns[field]:
			style = dateStyle
		}
		if err := f.SetColStyle(sheet, name, style); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(rows, field)); err != nil {
			return err
		}
	}

	// header formatting, freeze and autofilter
	lastCell, _ := excelize.CoordinatesToCellName(len(fields), 1)
	if err := f.SetCellStyle(sheet, "A1", lastCell, headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// columnWidth fits a column to the longest value it holds. Every column
// except the free-form Message gets extra room for the filter arrow.
func columnWidth(rows ledger.Table, field string) float64 {
	width := len(field)
	for i := range rows {
		val := cellValue(&rows[i], field)
		if val == nil {
			continue
		}
		if n := len(fmt.Sprint(val)); n > width {
			width = n
		}
	}
	if field != "Message" {
		width += 6
	}
	return float64(width)
}

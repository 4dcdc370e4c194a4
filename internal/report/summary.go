package report

import (
	"fmt"
	"strings"

	"github.com/openclear/clearing-backend/internal/domain/ledger"
)

const summaryCellStyle = `style="BORDER: purple 2px solid; PADDING: 5px"`

// Summarize renders per-account, per-currency clearing totals of the given
// entities as HTML table rows for a notification body. Per row: items left
// open, items cleared, items whose posting failed.
func Summarize(tables map[string]ledger.Table, entities []string) string {
	var rows []string

	for _, entity := range entities {
		table, ok := tables[entity]
		if !ok {
			continue
		}

		for _, account := range accountsOf(table) {
			for _, curr := range currenciesOf(table, account) {
				var matched, errored, left int
				for i := range table {
					it := &table[i]
					if it.Account != account || it.Currency != curr {
						continue
					}
					if it.Matched {
						matched++
					}
					if strings.Contains(it.Message, "error") {
						errored++
					}
					if !strings.Contains(it.Message, "cleared") {
						left++
					}
				}
				cleared := matched - errored

				cells := []string{
					entity,
					account,
					curr,
					fmt.Sprint(left),
					fmt.Sprint(cleared),
					fmt.Sprint(errored),
					"", // note column, intentionally empty
				}
				var b strings.Builder
				b.WriteString("<TR>")
				for _, cell := range cells {
					fmt.Fprintf(&b, "<TD %s>%s</TD>", summaryCellStyle, cell)
				}
				b.WriteString("</TR>")
				rows = append(rows, b.String())
			}
		}
	}

	return strings.Join(rows, "\n")
}

// NotificationBody wraps the summary rows into a complete HTML mail body
// addressed to the given user, pointing at the report drop location.
func NotificationBody(userName, reportDir, summaryRows string) string {
	var b strings.Builder
	b.WriteString("<HTML><BODY style=\"font-family: Calibri, sans-serif\">")
	fmt.Fprintf(&b, "<P>Dear %s,</P>", userName)
	b.WriteString("<P>below is the overview of the automatic GL account clearing:</P>")
	b.WriteString(`<TABLE style="BORDER-COLLAPSE: collapse">`)
	b.WriteString("<TR>")
	for _, h := range []string{"Entity", "Account", "Currency", "Open items", "Cleared items", "Errors", "Note"} {
		fmt.Fprintf(&b, "<TH %s>%s</TH>", summaryCellStyle, h)
	}
	b.WriteString("</TR>\n")
	b.WriteString(summaryRows)
	b.WriteString("</TABLE>")
	if reportDir != "" {
		fmt.Fprintf(&b, "<P>The detailed reports are stored in: %s</P>", reportDir)
	}
	b.WriteString("<P>This message was generated automatically. Please do not reply.</P>")
	b.WriteString("</BODY></HTML>")
	return b.String()
}

func accountsOf(table ledger.Table) []string {
	seen := make(map[string]bool)
	var accs []string
	for i := range table {
		if !seen[table[i].Account] {
			seen[table[i].Account] = true
			accs = append(accs, table[i].Account)
		}
	}
	return accs
}

func currenciesOf(table ledger.Table, account string) []string {
	seen := make(map[string]bool)
	var currs []string
	for i := range table {
		if table[i].Account != account {
			continue
		}
		if !seen[table[i].Currency] {
			seen[table[i].Currency] = true
			currs = append(currs, table[i].Currency)
		}
	}
	return currs
}

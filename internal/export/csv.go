// Package export renders the admin subscriber list as the CSV artifact the
// dashboard offers for download.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/signalweekly/newsletter/internal/domain"
)

// Columns of the export, in order.
var csvHeaders = []string{"Email", "Age", "Source", "Status", "Joined Date"}

// SubscribersCSV renders subscribers as CSV: unquoted header row, every data
// cell double-quoted, rows in the given order, LF line endings, no trailing
// newline. An age of zero renders as an empty cell. Cells are sanitized
// rather than escaped because none of the columns may legally contain a
// quote or comma; encoding/csv would quote conditionally and change the
// artifact's shape.
func SubscribersCSV(subs []domain.Subscriber) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeaders, ","))

	for _, sub := range subs {
		age := ""
		if sub.Age != 0 {
			age = fmt.Sprintf("%d", sub.Age)
		}
		cells := []string{
			sanitize(sub.Email),
			age,
			sanitize(sub.Source),
			sanitize(string(sub.Status)),
			isoTimestamp(sub.CreatedAt),
		}
		b.WriteString("\n")
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`"` + cell + `"`)
		}
	}
	return b.String()
}

// Filename returns the dated attachment name for an export generated now.
func Filename(now time.Time) string {
	return fmt.Sprintf("signal-weekly-subscribers-%s.csv", now.UTC().Format("2006-01-02"))
}

// isoTimestamp matches JavaScript's Date.toISOString: UTC with millisecond
// precision and a Z suffix.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func sanitize(cell string) string {
	return strings.NewReplacer(`"`, "", ",", " ", "\n", " ").Replace(cell)
}

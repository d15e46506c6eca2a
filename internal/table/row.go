package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is one record as the observer table shows it. Relative-time
// annotations are excluded because they change with the clock, not the data.
type Row struct {
	ID        string
	Timestamp string
	Cells     []string
	Link      string
}

// Equal reports whether two rows carry the same data.
func (r Row) Equal(other Row) bool {
	if r.ID != other.ID || r.Timestamp != other.Timestamp || r.Link != other.Link {
		return false
	}
	if len(r.Cells) != len(other.Cells) {
		return false
	}
	for i := range r.Cells {
		if r.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	dup := r
	if r.Cells != nil {
		dup.Cells = append([]string(nil), r.Cells...)
	}
	return dup
}

// Parse extracts rows from a table-body markup fragment. Every tr with at
// least one td becomes a row.
func Parse(fragment string) ([]Row, error) {
	return ParseReader(strings.NewReader(fragment))
}

// ParseReader is Parse for a stream.
func ParseReader(r io.Reader) ([]Row, error) {
	wrapped := io.MultiReader(strings.NewReader("<table>"), r, strings.NewReader("</table>"))
	doc, err := goquery.NewDocumentFromReader(wrapped)
	if err != nil {
		return nil, fmt.Errorf("parse table body: %w", err)
	}

	rows := make([]Row, 0)
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		row := Row{Cells: make([]string, 0, tds.Length())}
		tds.Each(func(_ int, td *goquery.Selection) {
			cell := td.Clone()
			cell.Find("span[data-ts]").Remove()
			row.Cells = append(row.Cells, normalizeSpace(cell.Text()))
		})
		row.Timestamp = rowTimestamp(tr)
		if href, ok := tr.Find("a[href]").First().Attr("href"); ok {
			row.Link = strings.TrimSpace(href)
		}
		row.ID = rowID(tr, row)
		rows = append(rows, row)
	})
	return rows, nil
}

func rowTimestamp(tr *goquery.Selection) string {
	if ts, ok := tr.Attr("data-ts"); ok && strings.TrimSpace(ts) != "" {
		return strings.TrimSpace(ts)
	}
	if ts, ok := tr.Find("[data-ts]").First().Attr("data-ts"); ok {
		return strings.TrimSpace(ts)
	}
	return ""
}

func rowID(tr *goquery.Selection, row Row) string {
	if id, ok := tr.Attr("data-id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	if row.Timestamp != "" {
		return row.Timestamp
	}
	return strings.Join(row.Cells, "\x1f")
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package batchio reads prospect URL lists from CSV or XLSX files and
// writes batch results back out as CSV.
package batchio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

// resultHeader is the column layout of the output CSV. Sample carries a
// preview of the cleaned text for rows that failed to scrape.
var resultHeader = []string{
	"URL", "Name", "Company", "Role",
	"Email Subject", "Email Body", "LinkedIn Msg", "WhatsApp Msg", "SMS Msg",
	"Status", "Sample",
}

// ReadURLs loads prospect URLs from a .csv or .xlsx file. The URL column
// is picked by header name (anything containing "linkedin" or "url");
// without a recognizable header the first column is used.
func ReadURLs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "batchio: open csv")
		}
		defer func() { _ = f.Close() }()
		return readCSVURLs(f)
	case ".xlsx":
		return readXLSXURLs(path)
	default:
		return nil, eris.Errorf("batchio: unsupported input format %q", filepath.Ext(path))
	}
}

func readCSVURLs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var (
		urls []string
		col  = -1
	)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batchio: read csv row")
		}
		if first {
			first = false
			col = pickURLColumn(record)
			if col >= 0 {
				continue
			}
			col = 0
		}
		if url := cellAt(record, col); url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

func readXLSXURLs(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batchio: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("batchio: xlsx has no sheets")
	}

	var (
		urls []string
		col  = -1
	)
	for i, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			col = pickURLColumn(cells)
			if col >= 0 {
				continue
			}
			col = 0
		}
		if url := cellAt(cells, col); url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

// pickURLColumn returns the index of a header cell naming a URL column,
// or -1 when the row does not look like a header.
func pickURLColumn(header []string) int {
	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		if strings.Contains(lower, "linkedin") || strings.Contains(lower, "url") {
			return i
		}
	}
	return -1
}

func cellAt(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// WriteResults writes batch results as CSV, one row per processed URL.
func WriteResults(w io.Writer, results []model.BatchItemResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(resultHeader); err != nil {
		return eris.Wrap(err, "batchio: write header")
	}
	for _, r := range results {
		row := []string{
			r.URL, r.Name, r.Company, r.Role,
			r.EmailSubject, r.EmailBody, r.LinkedInMsg, r.WhatsAppMsg, r.SMSMsg,
			r.Status, r.Sample,
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "batchio: write row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "batchio: flush")
}

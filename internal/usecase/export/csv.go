// Package export renders harvested keyword records for download and computes
// word-frequency clusters.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
)

// CSVHeader is the first line of every CSV export.
var CSVHeader = []string{"Keyword", "Tag", "Source", "Parent"}

// SourceSeparator joins provider ids in the Source column.
const SourceSeparator = "|"

// WriteCSV writes records as CSV with every field quoted. Embedded quotes are doubled.
func WriteCSV(w io.Writer, records []keyword.Record) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, CSVHeader, false); err != nil {
		return err
	}
	for _, r := range records {
		sources := make([]string, 0, len(r.Sources()))
		for _, s := range r.Sources() {
			sources = append(sources, string(s))
		}
		row := []string{r.Keyword(), string(r.Tag()), strings.Join(sources, SourceSeparator), r.Parent()}
		if err := writeRow(bw, row, true); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, fields []string, quote bool) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
		if quote {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		if _, err := w.WriteString(f); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteText writes one keyword per line.
func WriteText(w io.Writer, records []keyword.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := bw.WriteString(r.Keyword() + "\n"); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush text: %w", err)
	}
	return nil
}

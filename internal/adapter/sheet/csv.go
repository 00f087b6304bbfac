package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/fuelplan-etl/internal/domain"
)

// ErrNoHeader is returned when the CSV has no header row.
var ErrNoHeader = errors.New("csv has no header row")

const utf8BOM = "\ufeff"

// DecodeTable reads a CSV export into a RawTable. Rows may have any number
// of fields; a leading UTF-8 BOM is dropped from the first header.
func DecodeTable(r io.Reader) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawTable{}, ErrNoHeader
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	if isBlankRow(headers) {
		return domain.RawTable{}, ErrNoHeader
	}

	rows := make([][]string, 0, 64)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}

	return domain.RawTable{Headers: headers, Rows: rows}, nil
}

// EncodeTable writes t as CSV, header first.
func EncodeTable(w io.Writer, t domain.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package transform

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrDecode is returned when the fetched object body cannot be parsed into
// a tabular dataset.
var ErrDecode = errors.New("could not decode object body")

// Dataset is the decoded cost-of-living file: one header row and all data
// rows, fully materialized in memory.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// Count returns the number of data rows, header excluded.
func (d *Dataset) Count() int {
	return len(d.Rows)
}

// DecodeCSV parses a CSV body into a Dataset. The first row is the header;
// every data row must have the same number of fields as the header. An empty
// body or a header with no data rows is an error, so a write is never
// attempted against an empty dataset.
func DecodeCSV(data []byte) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty object body", ErrDecode)
	}

	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV header: %v", ErrDecode, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading CSV row %d: %v", ErrDecode, len(rows)+2, err)
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows after header", ErrDecode)
	}

	return &Dataset{Columns: header, Rows: rows}, nil
}

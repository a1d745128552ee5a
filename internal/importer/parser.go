package importer

import (
	"encoding/csv"
	"io"
	"strings"
)

// Row maps source column names to raw cell text for one data line. Columns
// beyond the end of a short row are absent rather than empty.
type Row map[string]string

// Document is the parsed form of one delimited-text payload: the header
// line's column names in input order, plus one Row per non-empty data line.
type Document struct {
	Headers []string
	Rows    []Row
}

// Parse turns raw delimited text into a Document. The first line defines
// column names; duplicate names collapse with the last value winning when a
// row is indexed by name. Values are never type-coerced. Structural reader
// errors abort the whole parse with a ParseError listing every offending
// line.
func Parse(raw string) (*Document, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return &Document{}, nil
	}
	if err != nil {
		return nil, &ParseError{Lines: []string{err.Error()}}
	}

	doc := &Document{Headers: headers}
	var parseErrs []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
			continue
		}
		if emptyRecord(record) {
			continue
		}
		row := make(Row, len(headers))
		for i, name := range headers {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		doc.Rows = append(doc.Rows, row)
	}
	if len(parseErrs) > 0 {
		return nil, &ParseError{Lines: parseErrs}
	}
	return doc, nil
}

// DetectHeaders parses just enough of the payload to materialize the first
// data row's key set, which auto-detect uses as the available headers. A
// payload with zero data rows yields no headers.
func DetectHeaders(raw string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &ParseError{Lines: []string{err.Error()}}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, &ParseError{Lines: []string{err.Error()}}
		}
		if emptyRecord(record) {
			continue
		}
		seen := make(map[string]struct{}, len(headers))
		out := make([]string, 0, len(headers))
		for i, name := range headers {
			if i >= len(record) {
				break
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
		return out, nil
	}
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

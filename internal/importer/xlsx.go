package importer

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads the first sheet of an xlsx workbook into the same
// Document shape Parse produces, so uploaded spreadsheets flow through the
// identical mapping pipeline.
func ParseWorkbook(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Lines: []string{err.Error()}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets in workbook")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, &ParseError{Lines: []string{err.Error()}}
	}
	defer rows.Close()

	doc := &Document{}
	first := true
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, &ParseError{Lines: []string{err.Error()}}
		}
		if first {
			doc.Headers = record
			first = false
			continue
		}
		if emptyRecord(record) {
			continue
		}
		row := make(Row, len(doc.Headers))
		for i, name := range doc.Headers {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

package importer

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// FieldMapping associates source column names with target field keys. Entry
// order is the order the caller supplied them in, and every tie-break in
// this package resolves to the first matching entry, so mapping behaviour
// stays deterministic and reproducible.
type FieldMapping struct {
	pairs []mappingPair
}

type mappingPair struct {
	Column   string
	FieldKey string
}

// NewFieldMapping builds a mapping from alternating column/fieldKey pairs,
// mainly for tests and callers constructing mappings in code.
func NewFieldMapping(columnToField ...[2]string) FieldMapping {
	m := FieldMapping{pairs: make([]mappingPair, 0, len(columnToField))}
	for _, pair := range columnToField {
		m.pairs = append(m.pairs, mappingPair{Column: pair[0], FieldKey: pair[1]})
	}
	return m
}

// Len reports the number of column entries.
func (m FieldMapping) Len() int { return len(m.pairs) }

// TargetKeys returns the distinct field keys appearing as mapping values,
// ordered by first appearance. This is exactly the key set of every record
// MapRow emits.
func (m FieldMapping) TargetKeys() []string {
	seen := make(map[string]struct{}, len(m.pairs))
	keys := make([]string, 0, len(m.pairs))
	for _, pair := range m.pairs {
		if _, ok := seen[pair.FieldKey]; ok {
			continue
		}
		seen[pair.FieldKey] = struct{}{}
		keys = append(keys, pair.FieldKey)
	}
	return keys
}

// ColumnFor returns the first source column mapped onto the given field key.
func (m FieldMapping) ColumnFor(fieldKey string) (string, bool) {
	for _, pair := range m.pairs {
		if pair.FieldKey == fieldKey {
			return pair.Column, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts the wire form {"Column": "field_key", ...} and
// preserves the object's key order, which encoding/json's map type would
// discard.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("mapping must be a JSON object")
	}
	var pairs []mappingPair
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return err
		}
		column, _ := keyTok.(string)
		var fieldKey string
		if err := decoder.Decode(&fieldKey); err != nil {
			return errors.Wrap(err, "mapping values must be strings")
		}
		pairs = append(pairs, mappingPair{Column: column, FieldKey: fieldKey})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	m.pairs = pairs
	return nil
}

// MarshalJSON renders the mapping back as an object in entry order.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range m.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pair.Column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(pair.FieldKey)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MapRow projects one parsed row through the mapping. The result always
// contains exactly the mapping's target keys; a cell that is absent or empty
// becomes an explicit null. Pure, so rows can be mapped independently and in
// any order.
func MapRow(row Row, mapping FieldMapping) map[string]any {
	record := make(map[string]any, mapping.Len())
	for _, fieldKey := range mapping.TargetKeys() {
		column, _ := mapping.ColumnFor(fieldKey)
		if value, ok := row[column]; ok && value != "" {
			record[fieldKey] = value
		} else {
			record[fieldKey] = nil
		}
	}
	return record
}

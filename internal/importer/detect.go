package importer

import (
	"strings"

	"orderdesk/internal/models"
)

// Detection is the full auto-detect response: every detected header, the
// schema's fields, and the suggested header→field_key mapping. Unmatched
// headers are simply absent from Suggestions so a caller can render them for
// manual assignment.
type Detection struct {
	CSVHeaders  []string           `json:"csvHeaders"`
	FormFields  []models.FormField `json:"formFields"`
	Suggestions map[string]string  `json:"suggestions"`
}

// Suggest proposes a mapping by comparing each header case-insensitively
// against every field's label and field key. Fields are scanned in the order
// the resolver returned them and the first match wins; headers with no match
// are never guessed at.
func Suggest(headers []string, fields []models.FormField) map[string]string {
	suggestions := make(map[string]string, len(headers))
	for _, header := range headers {
		for _, field := range fields {
			if strings.EqualFold(header, field.Label) || strings.EqualFold(header, field.FieldKey) {
				suggestions[header] = field.FieldKey
				break
			}
		}
	}
	return suggestions
}

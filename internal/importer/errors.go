package importer

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the pipeline. Handlers translate these to
// HTTP statuses; nothing in this package is retried.
var (
	// ErrMissingInput covers absent caller identity, raw text, schema id
	// or mapping. Checked before any parsing or store round trip.
	ErrMissingInput = errors.New("missing required input")

	// ErrInvalidMode rejects any mode outside preview/import.
	ErrInvalidMode = errors.New("invalid import mode")

	// ErrSchemaNotOwned deliberately carries no detail about whether the
	// schema exists at all.
	ErrSchemaNotOwned = errors.New("schema not found or unauthorized")
)

// ParseError aborts the pipeline when the underlying reader reports
// structural problems. Lines holds one message per offending input line;
// no partial parse result is ever used.
type ParseError struct {
	Lines []string
}

func (e *ParseError) Error() string {
	return "parse failed: " + strings.Join(e.Lines, "; ")
}

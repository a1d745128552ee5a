package importer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/models"
)

// Mode selects what Run does with the mapped records.
type Mode string

const (
	// ModePreview computes normalized records without persisting them.
	ModePreview Mode = "preview"
	// ModeImport persists the whole record set in one bulk write.
	ModeImport Mode = "import"
)

// previewSampleSize is how many leading rows a preview echoes back as a
// quick sample alongside the full mapped set.
const previewSampleSize = 5

// SchemaDirectory resolves merchant-owned form schemas. Implementations
// must return models.ErrSchemaNotFound for both absent and foreign schemas
// so the pipeline cannot leak existence.
type SchemaDirectory interface {
	SchemaOwnedBy(ctx context.Context, schemaID, merchantID string) error
	ListFields(ctx context.Context, schemaID string) ([]models.FormField, error)
}

// RecordWriter persists a batch of normalized records stamped with the
// schema and merchant identity. The write is all-or-nothing: on error no
// record of the batch may remain persisted.
type RecordWriter interface {
	BulkInsert(ctx context.Context, schemaID, merchantID string, records []map[string]any) error
}

// Pipeline runs the parse → map → (persist) sequence for one request. It
// holds no mutable state, so one instance serves concurrent requests.
type Pipeline struct {
	schemas SchemaDirectory
	records RecordWriter
	log     logrus.FieldLogger
}

func New(schemas SchemaDirectory, records RecordWriter, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{schemas: schemas, records: records, log: log}
}

// Request carries one import or preview invocation.
type Request struct {
	MerchantID string
	SchemaID   string
	RawText    string
	Mapping    FieldMapping
	Mode       Mode
}

// Preview is the non-persisting result: every mapped record plus a short
// head sample.
type Preview struct {
	RowCount   int              `json:"rowCount"`
	SampleRows []map[string]any `json:"sampleRows"`
	MappedRows []map[string]any `json:"mappedRows"`
}

// Outcome is the aggregate result of a bulk import. SuccessCount is either
// zero (the batch failed) or Total (the batch landed); there is no partial
// outcome for a single bulk write.
type Outcome struct {
	Total        int `json:"total"`
	SuccessCount int `json:"successCount"`
}

// Result is Run's mode-dependent payload; exactly one of Preview and
// Outcome is set on success. On a failed import Outcome is still populated
// (SuccessCount zero) alongside the returned error.
type Result struct {
	Mode    Mode
	Preview *Preview
	Outcome *Outcome
}

// Run executes the full pipeline over raw delimited text.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := p.checkRequest(req, true); err != nil {
		return nil, err
	}
	doc, err := Parse(req.RawText)
	if err != nil {
		return nil, err
	}
	return p.runParsed(ctx, req, doc)
}

// RunParsed executes the pipeline over an already-parsed document, which is
// how spreadsheet uploads reuse the exact same mapping and persistence path.
func (p *Pipeline) RunParsed(ctx context.Context, req Request, doc *Document) (*Result, error) {
	if err := p.checkRequest(req, false); err != nil {
		return nil, err
	}
	return p.runParsed(ctx, req, doc)
}

// checkRequest fails fast on missing caller input before any parse or
// network cost is spent.
func (p *Pipeline) checkRequest(req Request, needRaw bool) error {
	switch {
	case req.MerchantID == "":
		return errors.Wrap(ErrMissingInput, "merchant identity")
	case needRaw && req.RawText == "":
		return errors.Wrap(ErrMissingInput, "rawText")
	case req.SchemaID == "":
		return errors.Wrap(ErrMissingInput, "schemaId")
	case req.Mapping.Len() == 0:
		return errors.Wrap(ErrMissingInput, "mapping")
	}
	if req.Mode != ModePreview && req.Mode != ModeImport {
		return errors.Wrapf(ErrInvalidMode, "%q", req.Mode)
	}
	return nil
}

func (p *Pipeline) runParsed(ctx context.Context, req Request, doc *Document) (*Result, error) {
	if err := p.schemas.SchemaOwnedBy(ctx, req.SchemaID, req.MerchantID); err != nil {
		if errors.Is(err, models.ErrSchemaNotFound) {
			return nil, ErrSchemaNotOwned
		}
		return nil, errors.Wrap(err, "schema lookup failed")
	}

	mapped := make([]map[string]any, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		mapped = append(mapped, MapRow(row, req.Mapping))
	}

	if req.Mode == ModePreview {
		sample := mapped
		if len(sample) > previewSampleSize {
			sample = sample[:previewSampleSize]
		}
		return &Result{Mode: ModePreview, Preview: &Preview{
			RowCount:   len(mapped),
			SampleRows: sample,
			MappedRows: mapped,
		}}, nil
	}

	outcome := &Outcome{Total: len(mapped)}
	if err := p.records.BulkInsert(ctx, req.SchemaID, req.MerchantID, mapped); err != nil {
		p.log.WithFields(logrus.Fields{
			"schemaId": req.SchemaID,
			"rows":     len(mapped),
		}).WithError(err).Error("bulk import failed")
		return &Result{Mode: ModeImport, Outcome: outcome}, errors.Wrap(err, "bulk insert failed")
	}
	outcome.SuccessCount = outcome.Total
	p.log.WithFields(logrus.Fields{
		"schemaId": req.SchemaID,
		"rows":     outcome.Total,
	}).Info("bulk import complete")
	return &Result{Mode: ModeImport, Outcome: outcome}, nil
}

// AutoDetect parses only the header portion of the payload and proposes a
// mapping against the schema's fields. It never writes anything.
func (p *Pipeline) AutoDetect(ctx context.Context, schemaID, rawText string) (*Detection, error) {
	if rawText == "" {
		return nil, errors.Wrap(ErrMissingInput, "rawText")
	}
	if schemaID == "" {
		return nil, errors.Wrap(ErrMissingInput, "schemaId")
	}
	fields, err := p.schemas.ListFields(ctx, schemaID)
	if err != nil {
		return nil, errors.Wrap(err, "load form fields")
	}
	headers, err := DetectHeaders(rawText)
	if err != nil {
		return nil, err
	}
	if headers == nil {
		headers = []string{}
	}
	if fields == nil {
		fields = []models.FormField{}
	}
	return &Detection{
		CSVHeaders:  headers,
		FormFields:  fields,
		Suggestions: Suggest(headers, fields),
	}, nil
}

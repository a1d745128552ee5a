package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/auth"
	"orderdesk/internal/importer"
	"orderdesk/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDirectory struct {
	owner     string
	fields    []models.FormField
	ownCalls  int
	listCalls int
}

func (f *fakeDirectory) SchemaOwnedBy(ctx context.Context, schemaID, merchantID string) error {
	f.ownCalls++
	if merchantID != f.owner {
		return models.ErrSchemaNotFound
	}
	return nil
}

func (f *fakeDirectory) ListFields(ctx context.Context, schemaID string) ([]models.FormField, error) {
	f.listCalls++
	return f.fields, nil
}

type fakeWriter struct {
	calls int
	err   error
}

func (f *fakeWriter) BulkInsert(ctx context.Context, schemaID, merchantID string, records []map[string]any) error {
	f.calls++
	return f.err
}

type testEnv struct {
	router    *gin.Engine
	token     string
	directory *fakeDirectory
	writer    *fakeWriter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	directory := &fakeDirectory{
		owner: "merchant-1",
		fields: []models.FormField{
			{FieldKey: "customer_name", Label: "Name", Type: "text"},
			{FieldKey: "customer_phone", Label: "Phone", Type: "phone"},
		},
	}
	writer := &fakeWriter{}
	sessions := auth.NewManager(time.Hour)
	session, err := sessions.Issue("merchant-1")
	require.NoError(t, err)

	server := &Server{
		Importer: importer.New(directory, writer, log),
		Sessions: sessions,
		Log:      log,
	}
	return &testEnv{
		router:    NewRouter(server),
		token:     session.Token,
		directory: directory,
		writer:    writer,
	}
}

func (e *testEnv) post(path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

const previewBody = `{
	"rawText": "Name,Phone\nAda,08011112222\n,09022223333",
	"schemaId": "schema-1",
	"mapping": {"Name": "customer_name", "Phone": "customer_phone"},
	"mode": "preview"
}`

func TestImportRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/api/v1/imports", previewBody, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_session")
	assert.Zero(t, env.directory.ownCalls)
	assert.Zero(t, env.writer.calls)
}

func TestImportPreview(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/api/v1/imports", previewBody, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"rowCount": 2,
		"sampleRows": [
			{"customer_name": "Ada", "customer_phone": "08011112222"},
			{"customer_name": null, "customer_phone": "09022223333"}
		],
		"mappedRows": [
			{"customer_name": "Ada", "customer_phone": "08011112222"},
			{"customer_name": null, "customer_phone": "09022223333"}
		]
	}`, rec.Body.String())
	assert.Zero(t, env.writer.calls, "preview never persists")
}

func TestImportPersistsBatch(t *testing.T) {
	env := newTestEnv(t)
	body := strings.Replace(previewBody, `"preview"`, `"import"`, 1)

	rec := env.post("/api/v1/imports", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"successCount":2`)
	assert.Equal(t, 1, env.writer.calls)
}

func TestImportInvalidMode(t *testing.T) {
	env := newTestEnv(t)
	body := strings.Replace(previewBody, `"preview"`, `"delete"`, 1)

	rec := env.post("/api/v1/imports", body, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_mode")
	assert.Zero(t, env.directory.ownCalls)
	assert.Zero(t, env.writer.calls)
}

func TestImportForeignSchemaHidden(t *testing.T) {
	env := newTestEnv(t)
	env.directory.owner = "someone-else"

	rec := env.post("/api/v1/imports", previewBody, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "schema_not_found_or_unauthorized")
	assert.Zero(t, env.writer.calls)
}

func TestImportStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.writer.err = errors.New("connection reset")
	body := strings.Replace(previewBody, `"preview"`, `"import"`, 1)

	rec := env.post("/api/v1/imports", body, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"successCount":0`)
	assert.Contains(t, rec.Body.String(), `"total":2`)
}

func TestImportParseFailure(t *testing.T) {
	env := newTestEnv(t)
	body := `{
		"rawText": "Name,Phone\n\"bad\"x,2",
		"schemaId": "schema-1",
		"mapping": {"Name": "customer_name"},
		"mode": "preview"
	}`

	rec := env.post("/api/v1/imports", body, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "parse_failed")
}

func TestAutoDetect(t *testing.T) {
	env := newTestEnv(t)
	body := `{"rawText": "Name,Phone\nAda,08011112222", "schemaId": "schema-1"}`

	rec := env.post("/api/v1/imports/auto-detect", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"suggestions":{"Name":"customer_name","Phone":"customer_phone"}`)
	assert.Equal(t, 1, env.directory.listCalls)
}

func TestAutoDetectMissingInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/api/v1/imports/auto-detect", `{"schemaId": "schema-1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

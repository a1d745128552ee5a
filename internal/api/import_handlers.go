package api

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"orderdesk/internal/importer"
)

type importRequest struct {
	RawText  string                `json:"rawText"`
	SchemaID string                `json:"schemaId"`
	Mapping  importer.FieldMapping `json:"mapping"`
	Mode     string                `json:"mode"`
}

func (s *Server) handleImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	result, err := s.Importer.Run(c.Request.Context(), importer.Request{
		MerchantID: currentMerchant(c),
		SchemaID:   req.SchemaID,
		RawText:    req.RawText,
		Mapping:    req.Mapping,
		Mode:       importer.Mode(req.Mode),
	})
	s.respondImport(c, result, err)
}

func (s *Server) handleImportUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil || header == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unsupported_file"})
		return
	}
	if header.Size > 10*1024*1024 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}
	var mapping importer.FieldMapping
	if raw := c.Request.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_mapping"})
			return
		}
	}
	req := importer.Request{
		MerchantID: currentMerchant(c),
		SchemaID:   c.Request.FormValue("schemaId"),
		Mapping:    mapping,
		Mode:       importer.Mode(c.Request.FormValue("mode")),
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read_failed"})
		return
	}

	var result *importer.Result
	if ext == ".xlsx" {
		doc, parseErr := importer.ParseWorkbook(data)
		if parseErr != nil {
			s.respondImport(c, nil, parseErr)
			return
		}
		result, err = s.Importer.RunParsed(c.Request.Context(), req, doc)
	} else {
		req.RawText = string(data)
		result, err = s.Importer.Run(c.Request.Context(), req)
	}
	s.respondImport(c, result, err)
}

type autoDetectRequest struct {
	RawText  string `json:"rawText"`
	SchemaID string `json:"schemaId"`
}

func (s *Server) handleAutoDetect(c *gin.Context) {
	var req autoDetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	detection, err := s.Importer.AutoDetect(c.Request.Context(), req.SchemaID, req.RawText)
	if err != nil {
		if errors.Is(err, importer.ErrMissingInput) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
			return
		}
		var parseErr *importer.ParseError
		if errors.As(err, &parseErr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "parse_failed", "details": parseErr.Lines})
			return
		}
		s.Log.WithError(err).Error("auto-detect failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "field_lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, detection)
}

// respondImport converts pipeline results and the error taxonomy into HTTP
// responses. Store failure detail stays in the logs, not the response.
func (s *Server) respondImport(c *gin.Context, result *importer.Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrMissingInput):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		case errors.Is(err, importer.ErrInvalidMode):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_mode"})
		case errors.Is(err, importer.ErrSchemaNotOwned):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "schema_not_found_or_unauthorized"})
		default:
			var parseErr *importer.ParseError
			if errors.As(err, &parseErr) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "parse_failed", "details": parseErr.Lines})
				return
			}
			s.Log.WithError(err).Error("import failed")
			payload := gin.H{"error": "import_failed"}
			if result != nil && result.Outcome != nil {
				payload["total"] = result.Outcome.Total
				payload["successCount"] = result.Outcome.SuccessCount
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, payload)
		}
		return
	}
	if result.Mode == importer.ModePreview {
		c.JSON(http.StatusOK, result.Preview)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"successCount": result.Outcome.SuccessCount,
		"message":      "import complete",
	})
}

package api

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
)

type fieldRequest struct {
	FieldKey string `json:"field_key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type schemaRequest struct {
	Name   string         `json:"name"`
	Fields []fieldRequest `json:"fields"`
}

func (s *Server) handleCreateSchema(c *gin.Context) {
	var req schemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	if strings.TrimSpace(req.Name) == "" || len(req.Fields) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}
	fields := make([]models.FormField, 0, len(req.Fields))
	for _, f := range req.Fields {
		if strings.TrimSpace(f.FieldKey) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_field_key"})
			return
		}
		fields = append(fields, models.FormField{
			FieldKey: f.FieldKey,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
		})
	}
	schema, err := s.Schemas.CreateSchema(c.Request.Context(), currentMerchant(c), req.Name, fields)
	if err != nil {
		s.Log.WithError(err).Error("create schema failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, schema)
}

func (s *Server) handleListSchemas(c *gin.Context) {
	schemas, err := s.Schemas.ListSchemas(c.Request.Context(), currentMerchant(c))
	if err != nil {
		s.Log.WithError(err).Error("list schemas failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	if schemas == nil {
		schemas = []models.FormSchema{}
	}
	c.JSON(http.StatusOK, gin.H{"items": schemas})
}

func (s *Server) handleListFields(c *gin.Context) {
	schemaID := c.Param("id")
	if err := s.Schemas.SchemaOwnedBy(c.Request.Context(), schemaID, currentMerchant(c)); err != nil {
		if errors.Is(err, models.ErrSchemaNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "schema_not_found_or_unauthorized"})
			return
		}
		s.Log.WithError(err).Error("schema lookup failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	fields, err := s.Schemas.ListFields(c.Request.Context(), schemaID)
	if err != nil {
		s.Log.WithError(err).Error("list fields failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	if fields == nil {
		fields = []models.FormField{}
	}
	c.JSON(http.StatusOK, gin.H{"items": fields})
}

package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"orderdesk/internal/models"
)

// SchemaService persists merchant-owned form schemas and their ordered
// fields. It doubles as the import pipeline's schema directory.
type SchemaService struct {
	DB *sql.DB
}

func NewSchemaService(db *sql.DB) *SchemaService {
	return &SchemaService{DB: db}
}

func (s *SchemaService) CreateSchema(ctx context.Context, merchantID, name string, fields []models.FormField) (*models.FormSchema, error) {
	schema := &models.FormSchema{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO form_schemas (id, merchant_id, name, created_at)
		VALUES ($1,$2,$3,$4)
	`, schema.ID, schema.MerchantID, schema.Name, schema.CreatedAt); err != nil {
		tx.Rollback()
		return nil, err
	}
	for i, field := range fields {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO form_fields (id, schema_id, field_key, label, field_type, required, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, uuid.NewString(), schema.ID, field.FieldKey, field.Label, field.Type, field.Required, i); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return schema, nil
}

func (s *SchemaService) ListSchemas(ctx context.Context, merchantID string) ([]models.FormSchema, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, merchant_id, name, created_at
		FROM form_schemas WHERE merchant_id=$1 ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.FormSchema
	for rows.Next() {
		var schema models.FormSchema
		if err := rows.Scan(&schema.ID, &schema.MerchantID, &schema.Name, &schema.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	return out, rows.Err()
}

// SchemaOwnedBy is a single point lookup; absent and foreign schemas are
// indistinguishable to the caller.
func (s *SchemaService) SchemaOwnedBy(ctx context.Context, schemaID, merchantID string) error {
	var one int
	err := s.DB.QueryRowContext(ctx, `
		SELECT 1 FROM form_schemas WHERE id=$1 AND merchant_id=$2
	`, schemaID, merchantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrSchemaNotFound
	}
	return err
}

// ListFields returns the schema's fields in their declared order.
func (s *SchemaService) ListFields(ctx context.Context, schemaID string) ([]models.FormField, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT field_key, label, field_type, required, position
		FROM form_fields WHERE schema_id=$1 ORDER BY position
	`, schemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.FormField
	for rows.Next() {
		var field models.FormField
		if err := rows.Scan(&field.FieldKey, &field.Label, &field.Type, &field.Required, &field.Position); err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, rows.Err()
}

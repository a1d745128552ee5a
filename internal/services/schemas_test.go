package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/models"
)

func TestSchemaOwnedBy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewSchemaService(db)

	mock.ExpectQuery("SELECT 1 FROM form_schemas").
		WithArgs("schema-1", "merchant-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	require.NoError(t, svc.SchemaOwnedBy(context.Background(), "schema-1", "merchant-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaOwnedByHidesForeignSchemas(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewSchemaService(db)

	mock.ExpectQuery("SELECT 1 FROM form_schemas").
		WithArgs("schema-1", "intruder").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err = svc.SchemaOwnedBy(context.Background(), "schema-1", "intruder")
	require.ErrorIs(t, err, models.ErrSchemaNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFieldsKeepsDeclaredOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewSchemaService(db)

	mock.ExpectQuery("SELECT field_key, label, field_type, required, position").
		WithArgs("schema-1").
		WillReturnRows(sqlmock.NewRows([]string{"field_key", "label", "field_type", "required", "position"}).
			AddRow("customer_name", "Name", "text", true, 0).
			AddRow("customer_phone", "Phone", "phone", false, 1))

	fields, err := svc.ListFields(context.Background(), "schema-1")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "customer_name", fields[0].FieldKey)
	assert.Equal(t, "customer_phone", fields[1].FieldKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSchemaWritesFieldsInOnePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewSchemaService(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO form_schemas").
		WithArgs(sqlmock.AnyArg(), "merchant-1", "Deliveries", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "customer_name", "Name", "text", true, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO form_fields").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "customer_phone", "Phone", "phone", false, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	schema, err := svc.CreateSchema(context.Background(), "merchant-1", "Deliveries", []models.FormField{
		{FieldKey: "customer_name", Label: "Name", Type: "text", Required: true},
		{FieldKey: "customer_phone", Label: "Phone", Type: "phone"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, schema.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

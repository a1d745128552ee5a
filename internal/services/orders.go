package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"orderdesk/internal/models"
)

// OrderService provides CRUD over persisted order records plus the bulk
// write the import pipeline issues.
type OrderService struct {
	DB *sql.DB
}

func NewOrderService(db *sql.DB) *OrderService {
	return &OrderService{DB: db}
}

// BulkInsert persists one import batch inside a single transaction, so the
// batch either lands whole or not at all.
func (s *OrderService) BulkInsert(ctx context.Context, schemaID, merchantID string, records []map[string]any) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (id, schema_id, merchant_id, data, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), schemaID, merchantID, data, models.StatusPending, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *OrderService) Create(ctx context.Context, schemaID, merchantID string, data map[string]any) (*models.Order, error) {
	order := &models.Order{
		ID:         uuid.NewString(),
		SchemaID:   schemaID,
		MerchantID: merchantID,
		Data:       data,
		Status:     models.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	order.UpdatedAt = order.CreatedAt
	raw, err := json.Marshal(order.Data)
	if err != nil {
		return nil, err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO orders (id, schema_id, merchant_id, data, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, order.ID, order.SchemaID, order.MerchantID, raw, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListFilter narrows List; zero values mean no filter.
type ListFilter struct {
	SchemaID string
	Status   models.OrderStatus
	Limit    int
	Offset   int
}

func (s *OrderService) List(ctx context.Context, merchantID string, filter ListFilter) ([]models.Order, error) {
	query := `
		SELECT id, schema_id, merchant_id, data, status, created_at, updated_at
		FROM orders WHERE merchant_id=$1`
	args := []any{merchantID}
	if filter.SchemaID != "" {
		args = append(args, filter.SchemaID)
		query += ` AND schema_id=$2`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

func (s *OrderService) Get(ctx context.Context, id, merchantID string) (*models.Order, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, schema_id, merchant_id, data, status, created_at, updated_at
		FROM orders WHERE id=$1 AND merchant_id=$2
	`, id, merchantID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	return order, err
}

// AdvanceStatus moves the order one step along the linear progression. The
// UPDATE is guarded on the current status so concurrent advances cannot
// skip a step.
func (s *OrderService) AdvanceStatus(ctx context.Context, id, merchantID string) (*models.Order, error) {
	order, err := s.Get(ctx, id, merchantID)
	if err != nil {
		return nil, err
	}
	next, ok := order.Status.Next()
	if !ok {
		return nil, models.ErrStatusFinal
	}
	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND merchant_id=$4 AND status=$5
	`, next, now, id, merchantID, order.Status)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrOrderNotFound
	}
	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id, merchantID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM orders WHERE id=$1 AND merchant_id=$2`, id, merchantID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var data []byte
	if err := row.Scan(&order.ID, &order.SchemaID, &order.MerchantID, &data, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &order.Data); err != nil {
			return nil, err
		}
	}
	return &order, nil
}


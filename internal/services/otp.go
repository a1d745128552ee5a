package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"orderdesk/internal/models"
)

// OTPService issues and verifies short-lived phone login codes.
type OTPService struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewOTPService(db *sql.DB, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPService{DB: db, TTL: ttl}
}

// Issue stores a fresh six-digit code for the phone number and returns it
// so the caller can deliver it out-of-band.
func (s *OTPService) Issue(ctx context.Context, phone string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO otp_codes (id, phone, code, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, uuid.NewString(), phone, code, now.Add(s.TTL), now)
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes a valid code and returns the merchant bound to the phone
// number, creating the merchant on first login.
func (s *OTPService) Verify(ctx context.Context, phone, code string) (*models.Merchant, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM otp_codes WHERE phone=$1 AND code=$2 AND expires_at > $3
	`, phone, code, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrOTPInvalid
	}
	return s.findOrCreateMerchant(ctx, phone)
}

func (s *OTPService) findOrCreateMerchant(ctx context.Context, phone string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, phone, name, created_at FROM merchants WHERE phone=$1
	`, phone).Scan(&merchant.ID, &merchant.Phone, &merchant.Name, &merchant.CreatedAt)
	if err == nil {
		return &merchant, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	merchant = models.Merchant{
		ID:        uuid.NewString(),
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO merchants (id, phone, name, created_at) VALUES ($1,$2,$3,$4)
	`, merchant.ID, merchant.Phone, merchant.Name, merchant.CreatedAt); err != nil {
		return nil, err
	}
	return &merchant, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}
	return code, nil
}

package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupService periodically deletes expired OTP codes. It shares the
// store with the request path but touches nothing else, so no coordination
// is needed.
type CleanupService struct {
	DB       *sql.DB
	Interval time.Duration
	Log      logrus.FieldLogger
}

func NewCleanupService(db *sql.DB, interval time.Duration, log logrus.FieldLogger) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupService{DB: db, Interval: interval, Log: log}
}

// CleanupExpired removes every code past its expiry and reports how many
// were deleted.
func (s *CleanupService) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Run blocks until the context is cancelled, sweeping on every tick.
// Intended to be started as a goroutine from main.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.CleanupExpired(ctx)
			if err != nil {
				s.Log.WithError(err).Warn("otp cleanup failed")
				continue
			}
			if deleted > 0 {
				s.Log.WithField("deleted", deleted).Info("otp cleanup swept expired codes")
			}
		}
	}
}

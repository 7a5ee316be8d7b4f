package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/sat-verify/internal/logging"
)

// VerificationRecord is a persisted verification outcome.
type VerificationRecord struct {
	ID           uint      `gorm:"primaryKey"`
	RequestID    string    `gorm:"column:request_id;uniqueIndex;size:64"`
	ReportID     string    `gorm:"column:report_id;index;size:128"`
	Kind         string    `gorm:"column:kind;size:32"`
	Latitude     float64   `gorm:"column:latitude"`
	Longitude    float64   `gorm:"column:longitude"`
	Verified     bool      `gorm:"column:verified"`
	MatchedClass string    `gorm:"column:matched_class;size:32"`
	MatchedShare float64   `gorm:"column:matched_share"`
	Details      string    `gorm:"column:details;type:text"`
	LatencyMs    int64     `gorm:"column:latency_ms"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (VerificationRecord) TableName() string {
	return "verification_records"
}

// MetricsAggregation holds the raw aggregates behind the metrics summary.
type MetricsAggregation struct {
	TotalCount          int64
	VerifiedCount       int64
	AverageMatchedShare float64
	AverageLatencyMs    float64
}

// VerificationRepository provides persistence APIs for verification records.
type VerificationRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewVerificationRepository creates a new repository instance.
func NewVerificationRepository(db *gorm.DB, logger *zap.Logger) *VerificationRepository {
	return &VerificationRepository{
		db:             db,
		logger:         logger.Named("verification_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *VerificationRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&VerificationRecord{})
}

// SaveRecord persists a verification outcome.
func (r *VerificationRepository) SaveRecord(ctx context.Context, record *VerificationRecord) error {
	return r.executeWithRetry(ctx, "repository.save_record", record.RequestID, func() error {
		return r.db.WithContext(ctx).Create(record).Error
	})
}

// FindByRequestID retrieves the record for a verification request.
func (r *VerificationRepository) FindByRequestID(ctx context.Context, requestID string) (*VerificationRecord, error) {
	var record VerificationRecord
	err := r.executeWithRetry(ctx, "repository.find_by_request_id", requestID, func() error {
		return r.db.WithContext(ctx).First(&record, "request_id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByReportID retrieves all verification attempts for a report, newest
// first.
func (r *VerificationRepository) FindByReportID(ctx context.Context, reportID string) ([]*VerificationRecord, error) {
	var records []*VerificationRecord
	err := r.executeWithRetry(ctx, "repository.find_by_report_id", reportID, func() error {
		return r.db.WithContext(ctx).
			Where("report_id = ?", reportID).
			Order("created_at DESC").
			Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AggregateMetrics computes summary aggregates over all records.
func (r *VerificationRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		row := r.db.WithContext(ctx).
			Model(&VerificationRecord{}).
			Select("COUNT(*)",
				"COALESCE(SUM(CASE WHEN verified THEN 1 ELSE 0 END), 0)",
				"COALESCE(AVG(CASE WHEN verified THEN matched_share END), 0)",
				"COALESCE(AVG(latency_ms), 0)").
			Row()
		return row.Scan(&agg.TotalCount, &agg.VerifiedCount, &agg.AverageMatchedShare, &agg.AverageLatencyMs)
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *VerificationRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}

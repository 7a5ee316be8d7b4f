package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/sat-verify/internal/aoi"
	"github.com/example/sat-verify/internal/imagery"
	"github.com/example/sat-verify/internal/logging"
	"github.com/example/sat-verify/internal/report"
	"github.com/example/sat-verify/internal/repository"
	"github.com/example/sat-verify/internal/segmenter"
)

// VerificationRepository defines the persistence operations needed by the use case.
type VerificationRepository interface {
	SaveRecord(ctx context.Context, record *repository.VerificationRecord) error
	FindByRequestID(ctx context.Context, requestID string) (*repository.VerificationRecord, error)
	FindByReportID(ctx context.Context, reportID string) ([]*repository.VerificationRecord, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// Result is the outcome of one verification run.
type Result struct {
	RequestID    string
	ReportID     string
	Verified     bool
	MatchedClass string
	MatchedShare float64
	Message      string
}

// Options tune the verification pipeline.
type Options struct {
	AOIDelta        float64
	ConfidenceFloor float64
	MinCoveragePct  float64
}

// DefaultOptions mirror the thresholds the segmentation model was calibrated
// against.
func DefaultOptions() Options {
	return Options{
		AOIDelta:        aoi.DefaultDelta,
		ConfidenceFloor: 0.3,
		MinCoveragePct:  3.0,
	}
}

// VerificationUseCase encapsulates business logic for the verification flow.
type VerificationUseCase struct {
	repo     VerificationRepository
	cache    Cache
	capturer imagery.Capturer
	model    segmenter.Client
	logger   *zap.Logger
	opts     Options

	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
}

type cachedVerification struct {
	RequestID    string    `json:"request_id"`
	ReportID     string    `json:"report_id"`
	Kind         string    `json:"kind"`
	Verified     bool      `json:"verified"`
	MatchedClass string    `json:"matched_class"`
	MatchedShare float64   `json:"matched_share"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewVerificationUseCase constructs a new use case instance.
func NewVerificationUseCase(repo VerificationRepository, cache Cache, capturer imagery.Capturer, model segmenter.Client, opts Options, logger *zap.Logger) *VerificationUseCase {
	return &VerificationUseCase{
		repo:           repo,
		cache:          cache,
		capturer:       capturer,
		model:          model,
		logger:         logger.Named("verification_usecase"),
		opts:           opts,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
		now:            time.Now,
	}
}

// VerifyReport runs the full pipeline for one report: AOI construction,
// snapshot capture, segmentation, coverage matching, persistence and caching.
// Unknown report kinds surface as *report.ErrUnknownKind so callers can treat
// them as invalid input rather than pipeline failure.
func (uc *VerificationUseCase) VerifyReport(ctx context.Context, job *report.Job) (*Result, error) {
	kind, err := report.ParseKind(job.Type)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	started := uc.now()
	opLogger := logging.WithReport(logging.WithOperation(uc.logger, "usecase.verify_report", requestID), job.ReportID)

	if kind.RequiresManualReview() {
		result := &Result{
			RequestID: requestID,
			ReportID:  job.ReportID,
			Verified:  false,
			Message:   fmt.Sprintf("report type %s requires manual review", kind),
		}
		opLogger.Info("report requires manual review, skipping imagery pipeline")
		if err := uc.finishVerification(ctx, requestID, kind, job, result, started); err != nil {
			return nil, err
		}
		observeVerification(outcomeManualReview, uc.now().Sub(started))
		return result, nil
	}

	cacheKey := verificationCacheKey(requestID)
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.processing", func() error {
		return uc.cache.Set(ctx, cacheKey, "processing", time.Minute)
	}); err != nil {
		opLogger.Error("failed to set processing flag", zap.Error(err))
		return nil, err
	}

	box := aoi.Around(job.Latitude, job.Longitude, uc.opts.AOIDelta)
	pageURL := box.TaskingURL()

	snapshot, err := uc.capturer.Capture(ctx, pageURL)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.capture_snapshot", requestID, err)
		opLogger.Error("snapshot capture failed", zap.Error(wrapped))
		observeVerification(outcomeError, uc.now().Sub(started))
		return nil, wrapped
	}

	segmentation, err := uc.model.Segment(ctx, snapshot)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.segment_snapshot", requestID, err)
		opLogger.Error("segmentation failed", zap.Error(wrapped))
		observeVerification(outcomeError, uc.now().Sub(started))
		return nil, wrapped
	}

	segmentation.ApplyConfidenceFloor(uc.opts.ConfidenceFloor)
	shares := segmentation.ClassShares()

	result := &Result{
		RequestID: requestID,
		ReportID:  job.ReportID,
	}
	if match, ok := kind.MatchCoverage(shares, uc.opts.MinCoveragePct); ok {
		result.Verified = true
		result.MatchedClass = match.Class.String()
		result.MatchedShare = match.Share
		result.Message = fmt.Sprintf("matched %s at %.2f%% coverage", match.Class, match.Share)
	} else {
		result.Message = fmt.Sprintf("no land-cover class matched report type %s", kind)
	}

	if err := uc.finishVerification(ctx, requestID, kind, job, result, started); err != nil {
		return nil, err
	}

	outcome := outcomeUnverified
	if result.Verified {
		outcome = outcomeVerified
	}
	observeVerification(outcome, uc.now().Sub(started))

	opLogger.Info("verification completed",
		zap.Bool("verified", result.Verified),
		zap.String("matched_class", result.MatchedClass),
		zap.Float64("matched_share", result.MatchedShare))
	return result, nil
}

// finishVerification persists the outcome and caches it for result lookups.
func (uc *VerificationUseCase) finishVerification(ctx context.Context, requestID string, kind report.Kind, job *report.Job, result *Result, started time.Time) error {
	opLogger := logging.WithOperation(uc.logger, "usecase.verify_report", requestID)
	createdAt := uc.now().UTC()

	record := &repository.VerificationRecord{
		RequestID:    requestID,
		ReportID:     job.ReportID,
		Kind:         string(kind),
		Latitude:     job.Latitude,
		Longitude:    job.Longitude,
		Verified:     result.Verified,
		MatchedClass: result.MatchedClass,
		MatchedShare: result.MatchedShare,
		Details:      result.Message,
		LatencyMs:    uc.now().Sub(started).Milliseconds(),
		CreatedAt:    createdAt,
	}
	if err := uc.repo.SaveRecord(ctx, record); err != nil {
		wrapped := logging.NewOperationError("usecase.save_record", requestID, err)
		opLogger.Error("failed to persist verification record", zap.Error(wrapped))
		return wrapped
	}

	cached := cachedVerification{
		RequestID:    requestID,
		ReportID:     job.ReportID,
		Kind:         string(kind),
		Verified:     result.Verified,
		MatchedClass: result.MatchedClass,
		MatchedShare: result.MatchedShare,
		Details:      result.Message,
		CreatedAt:    createdAt,
	}
	serialized, err := json.Marshal(cached)
	if err != nil {
		opLogger.Error("failed to serialize verification result", zap.Error(err))
		return err
	}

	if err := uc.withRedisRetry(ctx, requestID, "cache.set.result", func() error {
		return uc.cache.Set(ctx, verificationCacheKey(requestID), string(serialized), 5*time.Minute)
	}); err != nil {
		opLogger.Error("failed to cache verification result", zap.Error(err))
		return err
	}
	return nil
}

// GetResult retrieves a cached verification outcome or loads from persistence.
func (uc *VerificationUseCase) GetResult(ctx context.Context, requestID string) (*repository.VerificationRecord, error) {
	cacheKey := verificationCacheKey(requestID)
	if cached, err := uc.withRedisGet(ctx, requestID, "cache.get.result", cacheKey); err == nil {
		var payload cachedVerification
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			logging.WithOperation(uc.logger, "usecase.get_result", requestID).Warn("failed to decode cached result", zap.Error(err))
		} else if payload.RequestID != "" {
			return &repository.VerificationRecord{
				RequestID:    payload.RequestID,
				ReportID:     payload.ReportID,
				Kind:         payload.Kind,
				Verified:     payload.Verified,
				MatchedClass: payload.MatchedClass,
				MatchedShare: payload.MatchedShare,
				Details:      payload.Details,
				CreatedAt:    payload.CreatedAt,
			}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.WithOperation(uc.logger, "usecase.get_result", requestID).Warn("failed to read cache", zap.Error(err))
	}

	return uc.repo.FindByRequestID(ctx, requestID)
}

// GetReportHistory lists every verification attempt recorded for a report,
// newest first. Reports can be re-verified (resubmission, retried jobs), so
// one report ID may map to several records.
func (uc *VerificationUseCase) GetReportHistory(ctx context.Context, reportID string) ([]*repository.VerificationRecord, error) {
	return uc.repo.FindByReportID(ctx, reportID)
}

// Healthy reports whether the inference sidecar is reachable and ready.
func (uc *VerificationUseCase) Healthy(ctx context.Context) error {
	return uc.model.Healthy(ctx)
}

func verificationCacheKey(requestID string) string {
	return fmt.Sprintf("verification:%s", requestID)
}

func (uc *VerificationUseCase) withRedisRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		err := fn()
		return logging.NewOperationError(operation, requestID, err)
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *VerificationUseCase) withRedisGet(ctx context.Context, requestID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
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

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/sat-verify/internal/report"
	"github.com/example/sat-verify/internal/repository"
	"github.com/example/sat-verify/internal/usecase"
	"github.com/example/sat-verify/internal/webhook"
)

// MaxBodySize bounds the verify request body. Jobs are a handful of JSON
// fields; anything larger is abuse.
const MaxBodySize = 64 << 10

// VerificationService is the slice of use case behavior the HTTP layer needs.
type VerificationService interface {
	VerifyReport(ctx context.Context, job *report.Job) (*usecase.Result, error)
	GetResult(ctx context.Context, requestID string) (*repository.VerificationRecord, error)
	GetReportHistory(ctx context.Context, reportID string) ([]*repository.VerificationRecord, error)
	GetMetricsSummary(ctx context.Context) (*usecase.MetricsSummary, error)
	Healthy(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc VerificationService, callbacks *webhook.Sender, authMiddleware gin.HandlerFunc, logger *zap.Logger) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := svc.Healthy(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "inference service unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "satellite verification service is ready"})
	})

	api := router.Group("/api", authMiddleware)

	api.POST("/verify", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodySize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		job, err := report.DecodeJob(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.VerifyReport(c.Request.Context(), job)
		if err != nil {
			var unknown *report.ErrUnknownKind
			if errors.As(err, &unknown) {
				c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal verification error"})
			return
		}

		// Callback delivery must not hold the HTTP response open, and a
		// dead callback server is the caller's problem, not ours.
		if job.CallbackURL != "" {
			go func(url string, payload webhook.Payload) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := callbacks.Deliver(ctx, url, payload); err != nil {
					logger.Warn("callback delivery failed",
						zap.String("report_id", payload.ReportID), zap.Error(err))
				}
			}(job.CallbackURL, webhook.Payload{
				ReportID:   result.ReportID,
				IsVerified: result.Verified,
				Message:    result.Message,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"message":    "Report processed successfully",
			"reportId":   result.ReportID,
			"requestId":  result.RequestID,
			"isVerified": result.Verified,
		})
	})

	api.GET("/result/:id", func(c *gin.Context) {
		requestID := c.Param("id")
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		record, err := svc.GetResult(c.Request.Context(), requestID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id":    record.RequestID,
			"report_id":     record.ReportID,
			"kind":          record.Kind,
			"verified":      record.Verified,
			"matched_class": record.MatchedClass,
			"matched_share": record.MatchedShare,
			"details":       record.Details,
			"created_at":    record.CreatedAt,
		})
	})

	api.GET("/report/:id/history", func(c *gin.Context) {
		reportID := c.Param("id")
		if reportID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		records, err := svc.GetReportHistory(c.Request.Context(), reportID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report history"})
			return
		}

		history := make([]gin.H, 0, len(records))
		for _, record := range records {
			history = append(history, gin.H{
				"request_id":    record.RequestID,
				"kind":          record.Kind,
				"verified":      record.Verified,
				"matched_class": record.MatchedClass,
				"matched_share": record.MatchedShare,
				"details":       record.Details,
				"created_at":    record.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"report_id": reportID, "history": history})
	})

	api.GET("/metrics/summary", func(c *gin.Context) {
		summary, err := svc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

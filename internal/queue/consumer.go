// Package queue consumes verification jobs from the message bus and hands
// outcomes to the webhook sender.
package queue

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/sat-verify/internal/report"
	"github.com/example/sat-verify/internal/usecase"
	"github.com/example/sat-verify/internal/webhook"
)

// Processor runs the verification pipeline for a decoded job.
type Processor interface {
	VerifyReport(ctx context.Context, job *report.Job) (*usecase.Result, error)
}

// Consumer processes verification jobs arriving on the bus. Bad or failing
// messages are logged and dropped; the consumer itself never stops on them.
type Consumer struct {
	processor  Processor
	callbacks  *webhook.Sender
	logger     *zap.Logger
	jobTimeout time.Duration
	inFlight   sync.WaitGroup
}

// Subscription is the slice of the NATS subscription shutdown needs.
type Subscription interface {
	Drain() error
	IsValid() bool
}

// NewConsumer constructs a consumer. jobTimeout bounds one full verification
// including capture and inference.
func NewConsumer(processor Processor, callbacks *webhook.Sender, jobTimeout time.Duration, logger *zap.Logger) *Consumer {
	return &Consumer{
		processor:  processor,
		callbacks:  callbacks,
		logger:     logger.Named("queue_consumer"),
		jobTimeout: jobTimeout,
	}
}

// Connect dials the NATS server with keepalive settings suited to a
// long-lived worker.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.PingInterval(5*time.Minute),
		nats.MaxPingsOutstanding(5),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.SetCustomDialer(&net.Dialer{
			KeepAlive: -1,
		}),
	)
}

// Subscribe joins the worker queue group on subject. Queue-group semantics
// give each job to exactly one worker instance.
func (c *Consumer) Subscribe(nc *nats.Conn, subject, queue string) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		c.Handle(m.Data)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("listening for verification jobs",
		zap.String("subject", subject), zap.String("queue", queue))
	return sub, nil
}

// Shutdown stops new deliveries and blocks until the drain finishes and any
// in-flight jobs complete, bounded by ctx. Drain alone is not enough: it
// returns while handlers may still be running.
func (c *Consumer) Shutdown(ctx context.Context, sub Subscription) error {
	if err := sub.Drain(); err != nil {
		return err
	}

	for sub.IsValid() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	done := make(chan struct{})
	go func() {
		c.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle processes a single raw job payload.
func (c *Consumer) Handle(payload []byte) {
	c.inFlight.Add(1)
	defer c.inFlight.Done()

	job, err := report.DecodeJob(payload)
	if err != nil {
		c.logger.Warn("dropping malformed job", zap.Error(err), zap.ByteString("payload", payload))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.jobTimeout)
	defer cancel()

	jobLogger := c.logger.With(zap.String("report_id", job.ReportID), zap.String("type", job.Type))
	jobLogger.Info("processing verification job")

	result, err := c.processor.VerifyReport(ctx, job)
	if err != nil {
		jobLogger.Error("verification failed", zap.Error(err))
		return
	}

	if job.CallbackURL == "" {
		jobLogger.Warn("job has no callbackUrl, result not delivered",
			zap.Bool("verified", result.Verified))
		return
	}

	if err := c.callbacks.Deliver(ctx, job.CallbackURL, webhook.Payload{
		ReportID:   result.ReportID,
		IsVerified: result.Verified,
		Message:    result.Message,
	}); err != nil {
		jobLogger.Error("callback delivery failed", zap.Error(err))
		return
	}

	jobLogger.Info("job completed", zap.Bool("verified", result.Verified))
}

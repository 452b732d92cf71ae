package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/pkg/jobs"
	"github.com/noah-isme/eduvita-api/pkg/mail"
)

const jobTypeMail = "mail.send"

// MailDispatcher sends mail in the background through a retrying job queue.
type MailDispatcher struct {
	mailer  mail.Mailer
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

// MailDispatcherConfig sizes the worker pool.
type MailDispatcherConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NewMailDispatcher wires a queue whose handler delivers through mailer.
func NewMailDispatcher(mailer mail.Mailer, metrics *MetricsService, logger *zap.Logger, cfg MailDispatcherConfig) *MailDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := &MailDispatcher{mailer: mailer, metrics: metrics, logger: logger, timeout: cfg.Timeout}
	d.queue = jobs.NewQueue("mail", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the workers.
func (d *MailDispatcher) Start(ctx context.Context) { d.queue.Start(ctx) }

// Stop cancels the workers; queued mail that has not started is dropped.
func (d *MailDispatcher) Stop() { d.queue.Stop() }

// Dispatch validates and enqueues msg without blocking on delivery.
func (d *MailDispatcher) Dispatch(msg mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := d.queue.Enqueue(jobs.Job{Type: jobTypeMail, Payload: msg}); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

func (d *MailDispatcher) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mail.Message)
	if !ok {
		d.logger.Error("dropping malformed mail job", zap.String("job_id", job.ID))
		return nil
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(sendCtx, msg); err != nil {
		d.metrics.RecordMail(false)
		return err
	}
	d.metrics.RecordMail(true)
	d.logger.Info("mail delivered", zap.String("job_id", job.ID), zap.String("subject", msg.Subject))
	return nil
}

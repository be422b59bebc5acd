package outbox

import (
	"context"
	"time"

	domain "fileflow/internal/domain/outbox"
	"fileflow/internal/repository"
	"fileflow/pkg/logger"
)

// Worker consumes entries of a single kind. A nil return completes the
// entry; an error sends it through the retry budget.
type Worker interface {
	Kind() domain.Kind
	Process(ctx context.Context, entry domain.Entry) error
}

// PermanentFailureHandler is implemented by workers that need to react when
// an entry exhausts its retries.
type PermanentFailureHandler interface {
	OnPermanentFailure(ctx context.Context, entry domain.Entry, errMsg string)
}

type Config struct {
	BatchSize  int
	Interval   time.Duration
	MaxRetries int
	// RetryAfter is the fixed wait before a FAILED entry is eligible again.
	RetryAfter time.Duration
	// StaleAfter is the age at which a PROCESSING entry is presumed
	// abandoned by a crashed dispatcher and reclaimed.
	StaleAfter time.Duration
}

// Dispatcher polls the outbox for one worker's kind and drives entries
// through PENDING, PROCESSING and the failure states. Each poll fills the
// batch in three passes with the remaining capacity carried between them:
// new entries first, then failed entries past their retry wait, then
// abandoned PROCESSING entries.
type Dispatcher struct {
	repo   repository.OutboxRepository
	worker Worker
	cfg    Config
	clock  func() time.Time
	logger *logger.Logger
}

func NewDispatcher(repo repository.OutboxRepository, worker Worker, cfg Config, l *logger.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		worker: worker,
		cfg:    cfg,
		clock:  time.Now,
		logger: l,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.processBatch(ctx)
		}
	}
}

func (d *Dispatcher) processBatch(ctx context.Context) {
	kind := d.worker.Kind()
	remaining := d.cfg.BatchSize

	pending, err := d.repo.GetPending(ctx, kind, remaining)
	if err != nil {
		d.logger.Errorf("outbox poll failed: kind=%s err=%v", kind, err)
		return
	}
	for _, e := range pending {
		d.processEntry(ctx, e)
	}

	remaining -= len(pending)
	if remaining <= 0 {
		return
	}

	retryable, err := d.repo.GetRetryableFailed(ctx, kind, d.cfg.MaxRetries, d.clock().Add(-d.cfg.RetryAfter), remaining)
	if err != nil {
		d.logger.Errorf("outbox retry poll failed: kind=%s err=%v", kind, err)
		return
	}
	for _, e := range retryable {
		d.processEntry(ctx, e)
	}

	remaining -= len(retryable)
	if remaining <= 0 {
		return
	}

	stale, err := d.repo.GetStaleProcessing(ctx, kind, d.clock().Add(-d.cfg.StaleAfter), remaining)
	if err != nil {
		d.logger.Errorf("outbox stale poll failed: kind=%s err=%v", kind, err)
		return
	}
	for _, e := range stale {
		d.processEntry(ctx, e)
	}

	if len(pending)+len(retryable)+len(stale) > 0 {
		d.logger.Infof("outbox batch done: kind=%s pending=%d retried=%d reclaimed=%d", kind, len(pending), len(retryable), len(stale))
	}
}

func (d *Dispatcher) processEntry(ctx context.Context, entry domain.Entry) {
	if err := d.repo.MarkProcessing(ctx, entry.ID); err != nil {
		d.logger.Errorf("failed to claim outbox entry: entry=%s err=%v", entry.ID, err)
		return
	}

	if err := d.worker.Process(ctx, entry); err != nil {
		d.failEntry(ctx, entry, err)
		return
	}

	if err := d.repo.MarkCompleted(ctx, entry.ID); err != nil {
		d.logger.Errorf("failed to complete outbox entry: entry=%s err=%v", entry.ID, err)
	}
}

func (d *Dispatcher) failEntry(ctx context.Context, entry domain.Entry, procErr error) {
	errMsg := procErr.Error()

	if entry.RetryCount+1 >= d.cfg.MaxRetries {
		if err := d.repo.MarkPermanentlyFailed(ctx, entry.ID, errMsg); err != nil {
			d.logger.Errorf("failed to mark outbox entry permanently failed: entry=%s err=%v", entry.ID, err)
			return
		}
		d.logger.Errorf("outbox entry permanently failed: kind=%s entry=%s attempts=%d err=%s", entry.Kind, entry.ID, entry.RetryCount+1, errMsg)
		if h, ok := d.worker.(PermanentFailureHandler); ok {
			h.OnPermanentFailure(ctx, entry, errMsg)
		}
		return
	}

	if err := d.repo.MarkFailed(ctx, entry.ID, errMsg); err != nil {
		d.logger.Errorf("failed to mark outbox entry failed: entry=%s err=%v", entry.ID, err)
		return
	}
	d.logger.Warnf("outbox entry failed, will retry: kind=%s entry=%s attempt=%d err=%s", entry.Kind, entry.ID, entry.RetryCount+1, errMsg)
}

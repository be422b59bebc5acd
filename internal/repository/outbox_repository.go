package repository

import (
	"context"
	"errors"
	"time"

	"fileflow/internal/domain/outbox"
	fileflow_errors "fileflow/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

func (r *PostgresOutboxRepository) Create(ctx context.Context, e *outbox.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *PostgresOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (outbox.Entry, error) {
	var e outbox.Entry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbox.Entry{}, fileflow_errors.ErrNotFound
		}
		return outbox.Entry{}, err
	}
	return e, nil
}

func (r *PostgresOutboxRepository) GetPending(ctx context.Context, kind outbox.Kind, limit int) ([]outbox.Entry, error) {
	var entries []outbox.Entry
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", kind, outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresOutboxRepository) GetRetryableFailed(ctx context.Context, kind outbox.Kind, maxRetries int, updatedBefore time.Time, limit int) ([]outbox.Entry, error) {
	var entries []outbox.Entry
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND retry_count < ? AND updated_at < ?",
			kind, outbox.StatusFailed, maxRetries, updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresOutboxRepository) GetStaleProcessing(ctx context.Context, kind outbox.Kind, updatedBefore time.Time, limit int) ([]outbox.Entry, error) {
	var entries []outbox.Entry
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND updated_at < ?",
			kind, outbox.StatusProcessing, updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresOutboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":     outbox.StatusProcessing,
		"updated_at": time.Now(),
	})
}

func (r *PostgresOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":     outbox.StatusCompleted,
		"updated_at": time.Now(),
	})
}

func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":      outbox.StatusFailed,
		"retry_count": gorm.Expr("retry_count + 1"),
		"last_error":  errMsg,
		"updated_at":  time.Now(),
	})
}

func (r *PostgresOutboxRepository) MarkPermanentlyFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.updateStatus(ctx, id, map[string]interface{}{
		"status":      outbox.StatusPermanentlyFailed,
		"retry_count": gorm.Expr("retry_count + 1"),
		"last_error":  errMsg,
		"updated_at":  time.Now(),
	})
}

func (r *PostgresOutboxRepository) updateStatus(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fileflow_errors.ErrNotFound
	}
	return nil
}

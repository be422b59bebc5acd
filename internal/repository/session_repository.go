package repository

import (
	"context"
	"errors"
	"time"

	"fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	fileflow_errors "fileflow/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *session.UploadSession) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fileflow_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.UploadSession, error) {
	var s session.UploadSession
	err := r.db.WithContext(ctx).Preload("Parts").Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.UploadSession{}, fileflow_errors.ErrNotFound
		}
		return session.UploadSession{}, err
	}
	return s, nil
}

func (r *PostgresSessionRepository) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (session.UploadSession, error) {
	var s session.UploadSession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.UploadSession{}, fileflow_errors.ErrNotFound
		}
		return session.UploadSession{}, err
	}
	return s, nil
}

func (r *PostgresSessionRepository) Update(ctx context.Context, s session.UploadSession) error {
	s.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Omit(clause.Associations).Save(&s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fileflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&session.UploadSession{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fileflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, status session.Status, page, limit int) ([]session.UploadSession, int64, error) {
	var sessions []session.UploadSession
	var total int64

	q := r.db.WithContext(ctx).
		Model(&session.UploadSession{}).
		Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *PostgresSessionRepository) UpdateWithOutbox(ctx context.Context, s session.UploadSession, entries ...*outbox.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s.UpdatedAt = time.Now()
		res := tx.Omit(clause.Associations).Save(&s)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fileflow_errors.ErrNotFound
		}
		for _, e := range entries {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresSessionRepository) GetPart(ctx context.Context, sessionID uuid.UUID, partNumber int) (session.CompletedPart, error) {
	var p session.CompletedPart
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND part_number = ?", sessionID, partNumber).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.CompletedPart{}, fileflow_errors.ErrNotFound
		}
		return session.CompletedPart{}, err
	}
	return p, nil
}

func (r *PostgresSessionRepository) GetParts(ctx context.Context, sessionID uuid.UUID) ([]session.CompletedPart, error) {
	var parts []session.CompletedPart
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("part_number ASC").
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (r *PostgresSessionRepository) UpdatePart(ctx context.Context, p session.CompletedPart) error {
	res := r.db.WithContext(ctx).Save(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fileflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.WithContext(ctx).
		Delete(&session.UploadSession{}, "status IN ('FAILED','EXPIRED') AND updated_at < ?", cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

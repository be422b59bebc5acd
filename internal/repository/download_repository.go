package repository

import (
	"context"
	"errors"
	"time"

	"fileflow/internal/domain/download"
	"fileflow/internal/domain/outbox"
	fileflow_errors "fileflow/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresDownloadRepository struct {
	db *gorm.DB
}

func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &PostgresDownloadRepository{db: db}
}

func (r *PostgresDownloadRepository) CreateWithOutbox(ctx context.Context, d *download.ExternalDownload, e *outbox.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		return tx.Create(e).Error
	})
}

func (r *PostgresDownloadRepository) GetByID(ctx context.Context, id uuid.UUID) (download.ExternalDownload, error) {
	var d download.ExternalDownload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return download.ExternalDownload{}, fileflow_errors.ErrNotFound
		}
		return download.ExternalDownload{}, err
	}
	return d, nil
}

func (r *PostgresDownloadRepository) Update(ctx context.Context, d download.ExternalDownload) error {
	d.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Save(&d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fileflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresDownloadRepository) UpdateWithOutbox(ctx context.Context, d download.ExternalDownload, entries ...*outbox.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d.UpdatedAt = time.Now()
		res := tx.Save(&d)
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

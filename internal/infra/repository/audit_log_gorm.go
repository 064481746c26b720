package repository

import (
	"context"

	"authsvc/internal/domain/model"
	repo "authsvc/internal/repository"

	"github.com/samber/oops"
	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return oops.In("audit_logs").With("action", log.Action).Wrapf(err, "insert audit log")
	}
	return nil
}

package service

import (
	"context"

	"dental-booking/internal/domain/entity"
	"dental-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditService interface {
	LogAction(ctx context.Context, tx *gorm.DB, actor string, action string, metadata map[string]any) error
	LogCreate(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, newValue any) error
	LogUpdate(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, oldValue, newValue any) error
	LogDelete(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, oldValue any) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogAction logs an action that is not tied to a single row (login, logout)
func (s *auditService) LogAction(ctx context.Context, tx *gorm.DB, actor string, action string, metadata map[string]any) error {
	return s.write(ctx, tx, actor, action, datatypes.JSONMap(metadata))
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, newValue any) error {
	return s.write(ctx, tx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, oldValue, newValue any) error {
	return s.write(ctx, tx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, actor string, action string, entityName string, entityID any, oldValue any) error {
	return s.write(ctx, tx, actor, action, datatypes.JSONMap{
		"entity":    entityName,
		"entity_id": entityID,
		"old_value": oldValue,
		"new_value": nil,
	})
}

func (s *auditService) write(ctx context.Context, tx *gorm.DB, actor, action string, metadata datatypes.JSONMap) error {
	auditLog := &entity.AuditLog{
		Actor:    actor,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}
	return nil
}

package services

import (
	"context"

	"tenantdesk/internal/models"
	apperr "tenantdesk/pkg/errors"
	"tenantdesk/pkg/logger"
	"tenantdesk/pkg/metrics"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEntry 一条审计记录，空字符串字段写入 NULL
type AuditEntry struct {
	TenantID   string
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Payload    datatypes.JSONMap
}

func (e *AuditEntry) toModel() *models.AuditLog {
	payload := e.Payload
	if payload == nil {
		payload = datatypes.JSONMap{}
	}
	return &models.AuditLog{
		TenantID:   strPtr(e.TenantID),
		UserID:     strPtr(e.UserID),
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: strPtr(e.ResourceID),
		Payload:    payload,
	}
}

// WriteFunc 主写入，返回需要追加的审计记录（nil 表示不记录）
type WriteFunc func(tx *gorm.DB) (*AuditEntry, error)

// AuditService 审计日志
type AuditService struct {
	db     *gorm.DB
	strict bool
}

// NewAuditService strict 为 true 时主写入与审计在同一事务内
func NewAuditService(db *gorm.DB, strict bool) *AuditService {
	return &AuditService{db: db, strict: strict}
}

// Strict 是否严格模式
func (s *AuditService) Strict() bool {
	return s.strict
}

// Apply 执行主写入并追加审计记录
func (s *AuditService) Apply(ctx context.Context, write WriteFunc) error {
	db := s.db.WithContext(ctx)

	if s.strict {
		return db.Transaction(func(tx *gorm.DB) error {
			entry, err := write(tx)
			if err != nil {
				return err
			}
			if entry == nil {
				return nil
			}
			if err := tx.Create(entry.toModel()).Error; err != nil {
				s.countFailure(entry)
				return apperr.Internal("Error al registrar auditoría", err)
			}
			return nil
		})
	}

	entry, err := write(db)
	if err != nil {
		return err
	}
	if entry != nil {
		s.Record(ctx, entry)
	}
	return nil
}

// Record 追加审计记录，失败只记录日志
func (s *AuditService) Record(ctx context.Context, entry *AuditEntry) {
	if err := s.db.WithContext(ctx).Create(entry.toModel()).Error; err != nil {
		s.countFailure(entry)
		logger.FromContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"action":      entry.Action,
			"resource":    entry.Resource,
			"resource_id": entry.ResourceID,
		}).Warn("audit append failed")
	}
}

func (s *AuditService) countFailure(entry *AuditEntry) {
	metrics.AuditWriteFailuresTotal.WithLabelValues(entry.Action, entry.Resource).Inc()
}

// ListByResource 按资源查询审计记录，按时间正序
func (s *AuditService) ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("resource = ? AND resource_id = ?", resource, resourceID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

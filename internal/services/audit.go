package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"contactbook/internal/storage"
)

// AuditService 将认证相关事件持久化到数据库。
type AuditService struct{ db *gorm.DB }

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

// Write 写入一条审计记录；失败不向上传播，审计不阻塞主流程。
func (s *AuditService) Write(ctx context.Context, level, event string, userID *uint64, desc string, ip string) {
	_ = s.db.WithContext(ctx).Create(&storage.AuditRecord{
		Timestamp:   time.Now(),
		Level:       level,
		Event:       event,
		UserID:      userID,
		Description: desc,
		IPAddress:   ip,
	}).Error
}

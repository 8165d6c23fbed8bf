package storage

import (
	"time"

	"gorm.io/gorm"
)

// 本文件定义平台使用的所有 GORM 模型，集中管理数据结构。

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:25" json:"username"`
	Email        string    `gorm:"size:150;uniqueIndex" json:"email"`
	Password     string    `gorm:"size:255" json:"-"` // 已哈希的口令
	Avatar       string    `gorm:"size:255" json:"avatar"`
	RefreshToken string    `gorm:"size:512" json:"-"` // 当前有效的刷新令牌，登出/重置后清空
	Confirmed    bool      `gorm:"index" json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

type Contact struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"-"` // 所属用户
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FirstName   string    `gorm:"size:50;not null" json:"first_name"`
	LastName    string    `gorm:"size:50;not null" json:"last_name"`
	Email       string    `gorm:"size:150;index" json:"email"`
	Phone       string    `gorm:"size:30" json:"phone"`
	Birthday    time.Time `gorm:"not null" json:"birthday"`
	Description string    `gorm:"size:150" json:"description"`
	Favorites   bool      `json:"favorites"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditRecord 记录认证相关事件，便于排查异常登录与重置行为。
type AuditRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"index"`
	Level       string    `gorm:"size:16"`
	Event       string    `gorm:"size:64;index"`
	UserID      *uint64   `gorm:"index"`
	Description string    `gorm:"size:255"`
	IPAddress   string    `gorm:"size:64"`
}

// AutoMigrate 创建/更新全部表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Contact{}, &AuditRecord{})
}

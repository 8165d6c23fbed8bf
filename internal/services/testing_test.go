package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"contactbook/internal/config"
	"contactbook/internal/storage"
)

// testDB 打开独立的内存 SQLite 并完成迁移。
// cache=shared 确保连接池内多个连接看到同一份数据。
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	return db
}

func testConfig() config.Config {
	cfg := config.Load()
	cfg.JWT.Secret = "unit-test-secret"
	return cfg
}

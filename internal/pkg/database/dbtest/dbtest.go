// Package dbtest 为单元测试提供迁移完毕的内存 SQLite 数据库
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gh-integration/internal/pkg/crypto"
	"gh-integration/internal/pkg/database"
)

// AESKey 测试用加密密钥
const AESKey = "0123456789abcdef0123456789abcdef"

// New 每次调用返回独立的内存数据库
func New(t testing.TB) *gorm.DB {
	t.Helper()
	require.NoError(t, crypto.SetKey(AESKey))

	db, err := database.Open(sqlite.Open(":memory:"), "silent")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库按连接隔离, 固定为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

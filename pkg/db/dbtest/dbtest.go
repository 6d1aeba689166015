// Package dbtest opens throwaway in-memory databases for service
// tests. Production code never imports it.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
)

// Open returns a client backed by a fresh in-memory sqlite database
// with the full schema migrated.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := gdb.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}

	client := db.FromGorm(gdb)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// Package testutil provides shared helpers for store-backed tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"movierama/internal/config"
	"movierama/internal/db"
	"movierama/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestDB opens a migrated SQLite database in a temp dir. Transactions take the
// write lock up front so concurrent tests serialise instead of failing with
// SQLITE_BUSY.
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "movierama-test.db") +
		"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

	gdb, err := db.Open(config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(gdb, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Email:     username + "@example.com",
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

// SeedItem creates an item owned by owner. Items created in sequence get
// strictly increasing CreatedAt values.
func SeedItem(t *testing.T, gdb *gorm.DB, owner models.User, title string) models.Item {
	t.Helper()
	var count int64
	gdb.Model(&models.Item{}).Count(&count)
	it := models.Item{
		Title:       title,
		Description: fmt.Sprintf("about %s", title),
		UserID:      owner.ID,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(count) * time.Hour),
	}
	if err := gdb.Omit("User").Create(&it).Error; err != nil {
		t.Fatal(err)
	}
	return it
}

func SeedVote(t *testing.T, gdb *gorm.DB, voter models.User, item models.Item, kind models.ReactionKind) {
	t.Helper()
	v := models.Vote{UserID: voter.ID, ItemID: item.ID, Kind: kind}
	if err := gdb.Omit("Item").Create(&v).Error; err != nil {
		t.Fatal(err)
	}
}

// SeedVoters creates n distinct users, useful for building up reaction counts.
func SeedVoters(t *testing.T, gdb *gorm.DB, prefix string, n int) []models.User {
	t.Helper()
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, SeedUser(t, gdb, fmt.Sprintf("%s%d", prefix, i)))
	}
	return users
}

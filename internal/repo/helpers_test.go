package repo

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

// newTestDB opens a private in-memory database. With no models it is left
// empty so error paths can be exercised; AutoMigrate is used otherwise.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        nickname + "@example.com",
		PasswordHash: "x",
		Nickname:     nickname,
		NicknameKey:  domain.NicknameKey(nickname),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return u
}

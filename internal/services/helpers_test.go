package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/realtime"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
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

func seedContact(t *testing.T, db *gorm.DB, from, to uint, status domain.ContactStatus) *domain.Contact {
	t.Helper()
	c := &domain.Contact{UserID: from, ContactID: to, Status: status}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	return c
}

func seedWish(t *testing.T, db *gorm.DB, owner uint, title string, pos int) *domain.Wish {
	t.Helper()
	w := &domain.Wish{UserID: owner, Title: title, Position: pos}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("seed wish: %v", err)
	}
	return w
}

func reloadWish(t *testing.T, db *gorm.DB, id uint) domain.Wish {
	t.Helper()
	var w domain.Wish
	if err := db.First(&w, id).Error; err != nil {
		t.Fatalf("reload wish %d: %v", id, err)
	}
	return w
}

// recordingNotifier keeps every notification in memory.
type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, *n)
}

func (r *recordingNotifier) ofType(typ domain.NotificationType) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.got {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

// recordingPublisher stands in for the realtime hub.
type recordingPublisher struct {
	mu   sync.Mutex
	sent map[uint][]realtime.Message
}

func (p *recordingPublisher) Publish(uid uint, msg realtime.Message) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[uint][]realtime.Message{}
	}
	p.sent[uid] = append(p.sent[uid], msg)
	return 1
}

func (p *recordingPublisher) to(uid uint) []realtime.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[uid]
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

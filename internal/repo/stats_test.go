package repo

import (
	"context"
	"testing"
	"time"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

func TestContactsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := ContactsStats(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error due to missing contacts table")
	}
}

func TestContactsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	count, maxAt, err := ContactsStats(context.Background(), db, 1)
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", count, maxAt, err)
	}
}

func TestContactsStats_HidesBlockedFromBlockedParty(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	blocker := uint(2)

	rows := []*domain.Contact{
		{UserID: 1, ContactID: 3, Status: domain.ContactAccepted, CreatedAt: t1, UpdatedAt: t1},
		{UserID: 1, ContactID: 2, Status: domain.ContactBlocked, BlockedBy: &blocker, CreatedAt: t2, UpdatedAt: t2},
		{UserID: 4, ContactID: 5, Status: domain.ContactPending, CreatedAt: t2, UpdatedAt: t2},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, maxAt, err := ContactsStats(context.Background(), db, 1)
	if err != nil || count != 1 || maxAt == nil || !maxAt.Equal(t1) {
		t.Fatalf("user 1: got (%d, %v, %v)", count, maxAt, err)
	}
	count, maxAt, err = ContactsStats(context.Background(), db, 2)
	if err != nil || count != 1 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("blocker: got (%d, %v, %v)", count, maxAt, err)
	}
}

func TestWishesStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Wish{})
	if err := db.Create(&domain.Wish{UserID: 1, Title: "x", Position: 1}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Exec(`ALTER TABLE wishes RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}
	if _, _, err := WishesStats(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}

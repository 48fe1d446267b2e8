package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

func boolPtr(v bool) *bool { return &v }

func TestProfileGet_AppliesPrivacy(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db, &recordingNotifier{})
	svc.Now = fixedClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ana := seedUser(t, db, "ana")
	birth := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	ana.BirthDate = &birth
	ana.RealName = "Ana Real"
	ana.City = "Rosario"
	db.Save(ana)
	bob := seedUser(t, db, "bob")

	own, err := svc.Get(ctx, ana.ID, ana.ID)
	if err != nil || own.Email == "" || own.Address == nil || own.Age == nil || *own.Age != 35 {
		t.Fatalf("owner should see everything: %+v, %v", own, err)
	}

	other, err := svc.Get(ctx, bob.ID, ana.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other.Email != "" || other.Address != nil || other.RealName != "Ana Real" || other.BirthDate == nil || other.IsContact {
		t.Fatalf("defaults should hide email/address only: %+v", other)
	}

	if _, err := svc.UpdatePrivacy(ctx, ana.ID, PrivacyPatch{ShowRealName: boolPtr(false), ShowAddress: boolPtr(true)}); err != nil {
		t.Fatalf("UpdatePrivacy: %v", err)
	}
	seedContact(t, db, ana.ID, bob.ID, domain.ContactAccepted)
	other, _ = svc.Get(ctx, bob.ID, ana.ID)
	if other.RealName != "" || other.Address == nil || other.Address.City != "Rosario" || !other.IsContact {
		t.Fatalf("updated privacy not applied: %+v", other)
	}

	p, err := svc.GetPrivacy(ctx, ana.ID)
	if err != nil || p.ShowRealName || !p.ShowAddress || !p.ShowBirthDate {
		t.Fatalf("GetPrivacy = %+v, %v", p, err)
	}
	if _, err := svc.Get(ctx, bob.ID, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestUpdateMe(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db, &recordingNotifier{})
	ctx := context.Background()
	ana := seedUser(t, db, "ana")
	seedUser(t, db, "bob")

	if _, err := svc.UpdateMe(ctx, ana.ID, ProfilePatch{Nickname: strPtr("BOB")}); !errors.Is(err, ErrNicknameTaken) {
		t.Fatalf("expected ErrNicknameTaken, got %v", err)
	}
	if _, err := svc.UpdateMe(ctx, ana.ID, ProfilePatch{Email: strPtr("bob@example.com")}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.UpdateMe(ctx, ana.ID, ProfilePatch{Nickname: strPtr("x")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	u, err := svc.UpdateMe(ctx, ana.ID, ProfilePatch{Nickname: strPtr("Ana_2"), City: strPtr("  Córdoba "), Email: strPtr("ana@example.com")})
	if err != nil {
		t.Fatalf("UpdateMe: %v", err)
	}
	if u.Nickname != "Ana_2" || u.NicknameKey != "ana_2" || u.City != "Córdoba" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db, &recordingNotifier{})
	ctx := context.Background()
	ana := seedUser(t, db, "ana")
	seedUser(t, db, "Andres")
	seedUser(t, db, "bob")

	got, err := svc.Search(ctx, ana.ID, "AN", 0)
	if err != nil || len(got) != 1 || got[0].Nickname != "Andres" {
		t.Fatalf("Search = %+v, %v", got, err)
	}
	if _, err := svc.Search(ctx, ana.ID, "  ", 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank query: %v", err)
	}
}

func TestDeleteAccount_Cascade(t *testing.T) {
	db := newTestDB(t)
	notes := &recordingNotifier{}
	svc := NewProfileService(db, notes)
	ctx := context.Background()

	ana := seedUser(t, db, "ana")
	bob := seedUser(t, db, "bob")
	seedContact(t, db, ana.ID, bob.ID, domain.ContactAccepted)
	anasWish := seedWish(t, db, ana.ID, "a", 1)
	bobsWish := seedWish(t, db, bob.ID, "b", 1)
	now := time.Now()
	repo.ReserveWish(ctx, db, anasWish.ID, bob.ID, now)
	repo.ReserveWish(ctx, db, bobsWish.ID, ana.ID, now)
	repo.CreateNotification(ctx, db, &domain.Notification{UserID: ana.ID, Type: domain.NotifyBirthday, Title: "t", Message: "m"})
	repo.CreateVote(ctx, db, &domain.ReputationVote{FromUserID: bob.ID, ToUserID: ana.ID, Type: domain.VotePositive})
	repo.GetOrCreatePrivacy(ctx, db, ana.ID)

	if err := svc.DeleteAccount(ctx, ana.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	for _, m := range []any{&domain.Contact{}, &domain.ReputationVote{}, &domain.PrivacySettings{}} {
		var n int64
		db.Model(m).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows left: %d", m, n)
		}
	}
	var n int64
	db.Model(&domain.Notification{}).Where("user_id = ?", ana.ID).Count(&n)
	if n != 0 {
		t.Fatalf("notifications left: %d", n)
	}
	if w := reloadWish(t, db, bobsWish.ID); w.IsReserved {
		t.Fatalf("ana's reservation should be released")
	}
	if cnt, _ := repo.CountWishes(ctx, db, ana.ID); cnt != 0 {
		t.Fatalf("ana's wishes should be gone")
	}
	if ok, _ := repo.UserExists(ctx, db, ana.ID); ok {
		t.Fatalf("user row should be gone")
	}
	if c := notes.ofType(domain.NotifyWishCancelled); len(c) != 1 || c[0].UserID != bob.ID {
		t.Fatalf("bob should hear about the released wish: %+v", c)
	}
	if err := svc.DeleteAccount(ctx, ana.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

package domain

import (
	"testing"
	"time"
)

func TestContact_PairUniqueRegardlessOfDirection(t *testing.T) {
	db := newTestDB(t)

	first := &Contact{UserID: 3, ContactID: 9, Status: ContactPending}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.PairLow != 3 || first.PairHigh != 9 {
		t.Fatalf("pair keys not derived: %+v", first)
	}

	reverse := &Contact{UserID: 9, ContactID: 3, Status: ContactPending}
	if err := db.Create(reverse).Error; err == nil {
		t.Fatalf("expected unique violation for reversed pair")
	}
}

func TestContact_StatusCheckConstraint(t *testing.T) {
	db := newTestDB(t)
	c := &Contact{UserID: 1, ContactID: 2, Status: ContactStatus("friends")}
	if err := db.Create(c).Error; err == nil {
		t.Fatalf("expected CHECK violation for unknown status")
	}
}

func TestContact_Helpers(t *testing.T) {
	c := Contact{UserID: 4, ContactID: 5}
	if !c.Involves(4) || !c.Involves(5) || c.Involves(6) {
		t.Fatalf("Involves mismatch")
	}
	if c.Other(4) != 5 || c.Other(5) != 4 {
		t.Fatalf("Other mismatch")
	}
	if lo, hi := PairKey(8, 2); lo != 2 || hi != 8 {
		t.Fatalf("PairKey(8,2) = %d,%d", lo, hi)
	}
	for _, s := range []ContactStatus{ContactPending, ContactAccepted, ContactRejected, ContactBlocked} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	if ContactStatus("nope").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
}

func TestWish_PositionCheckConstraint(t *testing.T) {
	db := newTestDB(t)
	for _, pos := range []int{0, 11} {
		w := &Wish{UserID: 1, Title: "x", Position: pos}
		if err := db.Create(w).Error; err == nil {
			t.Fatalf("expected CHECK violation for position %d", pos)
		}
	}
	w := &Wish{UserID: 1, Title: "ok", Position: 10}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("position 10 should be accepted: %v", err)
	}
	if w.IsReserved || w.ReservedBy != nil {
		t.Fatalf("new wish should be unreserved: %+v", w)
	}
}

func TestNotification_MetadataRoundTrip(t *testing.T) {
	db := newTestDB(t)
	n := &Notification{
		UserID:   1,
		Type:     NotifyBirthday,
		Title:    "Birthday",
		Metadata: Metadata{"year": 2026, "nickname": "ana"},
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Notification
	if err := db.First(&got, n.ID).Error; err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Metadata["nickname"] != "ana" || got.Metadata["year"].(float64) != 2026 {
		t.Fatalf("metadata mismatch: %#v", got.Metadata)
	}

	plain := &Notification{UserID: 1, Type: NotifyContactRequest, Title: "Hi"}
	if err := db.Create(plain).Error; err != nil {
		t.Fatalf("create plain: %v", err)
	}
	var gotPlain Notification
	if err := db.First(&gotPlain, plain.ID).Error; err != nil {
		t.Fatalf("read plain: %v", err)
	}
	if gotPlain.Metadata != nil {
		t.Fatalf("expected nil metadata, got %#v", gotPlain.Metadata)
	}
}

func TestPrivacy_DefaultsPersistFalse(t *testing.T) {
	db := newTestDB(t)
	p := DefaultPrivacy(42)
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got PrivacySettings
	if err := db.Where("user_id = ?", 42).First(&got).Error; err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ShowEmail || got.ShowAddress || got.WishlistPublic {
		t.Fatalf("private fields should default to false: %+v", got)
	}
	if !got.ShowBirthDate || !got.ShowAge || !got.ShowRealName {
		t.Fatalf("public fields should default to true: %+v", got)
	}
}

func TestUser_NicknameKeyAndEmail(t *testing.T) {
	if NicknameKey(" Ana ") != NicknameKey("ANA") {
		t.Fatalf("nickname keys should fold case and trim")
	}
	if NormalizeEmail("  Foo@Example.COM ") != "foo@example.com" {
		t.Fatalf("NormalizeEmail mismatch")
	}

	db := newTestDB(t)
	a := &User{Email: "a@x.io", PasswordHash: "h", Nickname: "Ana", NicknameKey: NicknameKey("Ana")}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	b := &User{Email: "b@x.io", PasswordHash: "h", Nickname: "ana", NicknameKey: NicknameKey("ana")}
	if err := db.Create(b).Error; err == nil {
		t.Fatalf("expected nickname collision")
	}
}

func TestAgeAndNextBirthday(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, time.June, 14, 12, 0, 0, 0, time.UTC), 35},
		{time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC), 36},
		{time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), 36},
		{time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := AgeAt(birth, tc.now); got != tc.want {
			t.Fatalf("AgeAt(%v) = %d; want %d", tc.now, got, tc.want)
		}
	}

	now := time.Date(2026, time.June, 15, 18, 0, 0, 0, time.UTC)
	if next := NextBirthday(birth, now); next.Year() != 2026 || next.Day() != 15 {
		t.Fatalf("birthday today should count: %v", next)
	}
	now = time.Date(2026, time.June, 16, 0, 0, 0, 0, time.UTC)
	if next := NextBirthday(birth, now); next.Year() != 2027 {
		t.Fatalf("past birthday should roll to next year: %v", next)
	}

	u := &User{BirthDate: &birth}
	u.RefreshAge(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC))
	if u.Age != 36 {
		t.Fatalf("RefreshAge = %d", u.Age)
	}
	u.BirthDate = nil
	u.RefreshAge(time.Now())
	if u.Age != 0 {
		t.Fatalf("RefreshAge without birth date = %d", u.Age)
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
)

func newWishSvc(t *testing.T) (*WishService, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return NewWishService(newTestDB(t), n, 10), n
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCreate_PositionsAndLimit(t *testing.T) {
	svc, _ := newWishSvc(t)
	svc.MaxWishes = 3
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")

	w1, err := svc.Create(ctx, ana.ID, WishInput{Title: " bike "})
	if err != nil || w1.Position != 1 || w1.Title != "bike" {
		t.Fatalf("first wish = %+v, %v", w1, err)
	}
	w3, err := svc.Create(ctx, ana.ID, WishInput{Title: "book", Position: intPtr(3)})
	if err != nil || w3.Position != 3 {
		t.Fatalf("explicit position = %+v, %v", w3, err)
	}
	if _, err := svc.Create(ctx, ana.ID, WishInput{Title: "dup", Position: intPtr(3)}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("taken position: expected ErrInvalidPosition, got %v", err)
	}
	if _, err := svc.Create(ctx, ana.ID, WishInput{Title: "far", Position: intPtr(11)}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("out of range: expected ErrInvalidPosition, got %v", err)
	}
	w2, err := svc.Create(ctx, ana.ID, WishInput{Title: "lamp"})
	if err != nil || w2.Position != 2 {
		t.Fatalf("gap should be filled first: %+v, %v", w2, err)
	}
	if _, err := svc.Create(ctx, ana.ID, WishInput{Title: "one too many"}); !errors.Is(err, ErrWishLimit) {
		t.Fatalf("expected ErrWishLimit, got %v", err)
	}
	if _, err := svc.Create(ctx, ana.ID, WishInput{Title: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdate_SwapsPositionsOwnerOnly(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	a := seedWish(t, svc.DB, ana.ID, "a", 1)
	b := seedWish(t, svc.DB, ana.ID, "b", 2)

	if _, err := svc.Update(ctx, bob.ID, a.ID, WishPatch{Title: strPtr("mine")}); !errors.Is(err, ErrWishNotFound) {
		t.Fatalf("non-owner update: expected ErrWishNotFound, got %v", err)
	}

	got, err := svc.Update(ctx, ana.ID, a.ID, WishPatch{Title: strPtr("a2"), Position: intPtr(2)})
	if err != nil || got.Position != 2 || got.Title != "a2" {
		t.Fatalf("Update = %+v, %v", got, err)
	}
	if other := reloadWish(t, svc.DB, b.ID); other.Position != 1 {
		t.Fatalf("swapped wish should take position 1, got %d", other.Position)
	}
	if _, err := svc.Update(ctx, ana.ID, a.ID, WishPatch{Position: intPtr(0)}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestUpdate_MovePastEndKeepsPositionsContiguous(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	a := seedWish(t, svc.DB, ana.ID, "a", 1)
	b := seedWish(t, svc.DB, ana.ID, "b", 2)
	c := seedWish(t, svc.DB, ana.ID, "c", 3)

	got, err := svc.Update(ctx, ana.ID, a.ID, WishPatch{Position: intPtr(7)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Position != 3 {
		t.Fatalf("moved wish should end up last at 3, got %d", got.Position)
	}
	want := map[uint]int{b.ID: 1, c.ID: 2, a.ID: 3}
	for id, pos := range want {
		if w := reloadWish(t, svc.DB, id); w.Position != pos {
			t.Fatalf("wish %q at %d, want %d", w.Title, w.Position, pos)
		}
	}
}

func TestCreate_ConcurrentRespectsLimit(t *testing.T) {
	svc, _ := newWishSvc(t)
	sqlDB, _ := svc.DB.DB()
	sqlDB.SetMaxOpenConns(1)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	for i := 1; i < svc.MaxWishes; i++ {
		seedWish(t, svc.DB, ana.ID, "w", i)
	}

	const n = 6
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		limits int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, ana.ID, WishInput{Title: "last one"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrWishLimit):
				limits++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || limits != n-1 {
		t.Fatalf("wins=%d limits=%d; want 1 and %d", wins, limits, n-1)
	}
	list, err := svc.ListOwn(ctx, ana.ID)
	if err != nil || len(list) != svc.MaxWishes {
		t.Fatalf("ListOwn = %d wishes, %v; want %d", len(list), err, svc.MaxWishes)
	}
}

func TestCreate_UnknownOwner(t *testing.T) {
	svc, _ := newWishSvc(t)
	if _, err := svc.Create(context.Background(), 4242, WishInput{Title: "ghost"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDelete_CompactsAndNotifiesReserver(t *testing.T) {
	svc, notes := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	seedContact(t, svc.DB, ana.ID, bob.ID, domain.ContactAccepted)
	seedWish(t, svc.DB, ana.ID, "a", 1)
	mid := seedWish(t, svc.DB, ana.ID, "b", 2)
	last := seedWish(t, svc.DB, ana.ID, "c", 3)

	if _, err := svc.Reserve(ctx, bob.ID, mid.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := svc.Delete(ctx, bob.ID, mid.ID); !errors.Is(err, ErrWishNotFound) {
		t.Fatalf("non-owner delete: %v", err)
	}
	if err := svc.Delete(ctx, ana.ID, mid.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if w := reloadWish(t, svc.DB, last.ID); w.Position != 2 {
		t.Fatalf("positions should be compacted, got %d", w.Position)
	}
	cancelled := notes.ofType(domain.NotifyWishCancelled)
	if len(cancelled) != 1 || cancelled[0].UserID != bob.ID || cancelled[0].Metadata["reason"] != CancelReasonDeleted {
		t.Fatalf("reserver should be told, got %+v", cancelled)
	}
}

func TestReserve_OwnWishRejectedRegardlessOfState(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	seedContact(t, svc.DB, ana.ID, bob.ID, domain.ContactAccepted)
	w := seedWish(t, svc.DB, ana.ID, "a", 1)

	if _, err := svc.Reserve(ctx, ana.ID, w.ID); !errors.Is(err, ErrOwnWish) {
		t.Fatalf("free wish: expected ErrOwnWish, got %v", err)
	}
	if _, err := svc.Reserve(ctx, bob.ID, w.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := svc.Reserve(ctx, ana.ID, w.ID); !errors.Is(err, ErrOwnWish) {
		t.Fatalf("reserved wish: expected ErrOwnWish, got %v", err)
	}
}

func TestReserve_RequiresContactAndExistingWish(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	eve := seedUser(t, svc.DB, "eve")
	w := seedWish(t, svc.DB, ana.ID, "a", 1)

	if _, err := svc.Reserve(ctx, eve.ID, w.ID); !errors.Is(err, ErrNotContact) {
		t.Fatalf("expected ErrNotContact, got %v", err)
	}
	seedContact(t, svc.DB, eve.ID, ana.ID, domain.ContactPending)
	if _, err := svc.Reserve(ctx, eve.ID, w.ID); !errors.Is(err, ErrNotContact) {
		t.Fatalf("pending contact: expected ErrNotContact, got %v", err)
	}
	if _, err := svc.Reserve(ctx, eve.ID, 4242); !errors.Is(err, ErrWishNotFound) {
		t.Fatalf("expected ErrWishNotFound, got %v", err)
	}
}

func TestReserve_ConcurrentExactlyOneSucceeds(t *testing.T) {
	svc, notes := newWishSvc(t)
	sqlDB, _ := svc.DB.DB()
	sqlDB.SetMaxOpenConns(1)
	ctx := context.Background()

	owner := seedUser(t, svc.DB, "owner")
	w := seedWish(t, svc.DB, owner.ID, "console", 1)
	const n = 8
	var callers []uint
	for i := 0; i < n; i++ {
		u := seedUser(t, svc.DB, "friend"+string(rune('a'+i)))
		seedContact(t, svc.DB, owner.ID, u.ID, domain.ContactAccepted)
		callers = append(callers, u.ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, c := range callers {
		wg.Add(1)
		go func(caller uint) {
			defer wg.Done()
			_, err := svc.Reserve(ctx, caller, w.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyReserved):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(c)
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins=%d conflicts=%d; want 1 and %d", wins, conflicts, n-1)
	}
	if len(notes.ofType(domain.NotifyWishReserved)) != 1 {
		t.Fatalf("exactly one wish_reserved notification expected")
	}
}

func TestCancelReservation_OnlyReserver(t *testing.T) {
	svc, notes := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	cid := seedUser(t, svc.DB, "cid")
	seedContact(t, svc.DB, ana.ID, bob.ID, domain.ContactAccepted)
	seedContact(t, svc.DB, ana.ID, cid.ID, domain.ContactAccepted)
	w := seedWish(t, svc.DB, ana.ID, "a", 1)

	if _, err := svc.Reserve(ctx, bob.ID, w.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	for _, other := range []uint{cid.ID, ana.ID} {
		if _, err := svc.CancelReservation(ctx, other, w.ID); !errors.Is(err, ErrNotReserver) {
			t.Fatalf("caller %d: expected ErrNotReserver, got %v", other, err)
		}
	}
	if got := reloadWish(t, svc.DB, w.ID); !got.IsReserved || got.ReservedBy == nil || *got.ReservedBy != bob.ID {
		t.Fatalf("wish must stay reserved by bob: %+v", got)
	}

	got, err := svc.CancelReservation(ctx, bob.ID, w.ID)
	if err != nil || got.IsReserved {
		t.Fatalf("CancelReservation = %+v, %v", got, err)
	}
	if _, err := svc.CancelReservation(ctx, bob.ID, 999); !errors.Is(err, ErrWishNotFound) {
		t.Fatalf("missing wish: %v", err)
	}
	cancelled := notes.ofType(domain.NotifyWishCancelled)
	if len(cancelled) != 1 || cancelled[0].UserID != ana.ID {
		t.Fatalf("owner should be told about the cancellation: %+v", cancelled)
	}
}

func TestListFor_Visibility(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	eve := seedUser(t, svc.DB, "eve")
	seedWish(t, svc.DB, ana.ID, "a", 1)
	seedContact(t, svc.DB, ana.ID, bob.ID, domain.ContactAccepted)

	if got, err := svc.ListFor(ctx, bob.ID, ana.ID); err != nil || len(got) != 1 {
		t.Fatalf("contact view = %d, %v", len(got), err)
	}
	if _, err := svc.ListFor(ctx, eve.ID, ana.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ListFor(ctx, eve.ID, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown owner: expected ErrUserNotFound, got %v", err)
	}

	p := domain.DefaultPrivacy(ana.ID)
	p.WishlistPublic = true
	svc.DB.Create(&p)
	if got, err := svc.ListFor(ctx, eve.ID, ana.ID); err != nil || len(got) != 1 {
		t.Fatalf("public list = %d, %v", len(got), err)
	}

	seedContact(t, svc.DB, eve.ID, ana.ID, domain.ContactBlocked)
	if _, err := svc.ListFor(ctx, eve.ID, ana.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("blocked pair: expected ErrForbidden, got %v", err)
	}
	if own, err := svc.ListFor(ctx, ana.ID, ana.ID); err != nil || len(own) != 1 {
		t.Fatalf("own list = %d, %v", len(own), err)
	}
}

func TestListReservedBy(t *testing.T) {
	svc, _ := newWishSvc(t)
	ctx := context.Background()
	ana := seedUser(t, svc.DB, "ana")
	bob := seedUser(t, svc.DB, "bob")
	seedContact(t, svc.DB, ana.ID, bob.ID, domain.ContactAccepted)
	w := seedWish(t, svc.DB, ana.ID, "a", 1)

	empty, err := svc.ListReservedBy(ctx, bob.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty list = %#v, %v", empty, err)
	}
	if _, err := svc.Reserve(ctx, bob.ID, w.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	got, _ := svc.ListReservedBy(ctx, bob.ID)
	if len(got) != 1 || got[0].ID != w.ID {
		t.Fatalf("ListReservedBy = %+v", got)
	}
	if tag, err := svc.Fingerprint(ctx, ana.ID); err != nil || tag == "" {
		t.Fatalf("Fingerprint = %q, %v", tag, err)
	}
}

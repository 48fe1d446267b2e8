// Package services – WishService
//
// Wishes form a ranked list of at most MaxWishes items per user, positions
// 1..10. Reservation is a single conditional UPDATE so that of two
// concurrent reservations exactly one wins; the loser sees
// ErrAlreadyReserved.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/observability"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

const maxWishTitle = 120

// Reasons recorded in wish_cancelled metadata.
const (
	CancelReasonReserver = "cancelled_by_reserver"
	CancelReasonDeleted  = "wish_deleted"
)

// WishInput carries the fields of a new wish. A nil Position takes the lowest
// free slot.
type WishInput struct {
	Title        string `json:"title"        binding:"required,max=120"`
	Description  string `json:"description"  binding:"max=2000"`
	Image        string `json:"image"        binding:"omitempty,url,max=512"`
	PurchaseLink string `json:"purchaseLink" binding:"omitempty,url,max=1024"`
	Position     *int   `json:"position"     binding:"omitempty,min=1,max=10"`
}

// WishPatch carries optional updates; nil fields are left unchanged.
type WishPatch struct {
	Title        *string `json:"title"        binding:"omitempty,max=120"`
	Description  *string `json:"description"  binding:"omitempty,max=2000"`
	Image        *string `json:"image"        binding:"omitempty,url,max=512"`
	PurchaseLink *string `json:"purchaseLink" binding:"omitempty,url,max=1024"`
	Position     *int    `json:"position"     binding:"omitempty,min=1,max=10"`
}

// WishService manages wish lists and reservations.
type WishService struct {
	DB        *gorm.DB
	Notifier  Notifier
	MaxWishes int
	Now       func() time.Time
}

// NewWishService constructs a WishService. maxWishes outside 1..10 is
// replaced by 10.
func NewWishService(db *gorm.DB, n Notifier, maxWishes int) *WishService {
	if maxWishes < 1 || maxWishes > domain.MaxWishPosition {
		maxWishes = domain.MaxWishPosition
	}
	return &WishService{DB: db, Notifier: n, MaxWishes: maxWishes, Now: func() time.Time { return time.Now().UTC() }}
}

// Create adds a wish to owner's list. The owner row is locked for the
// transaction so concurrent creates cannot both pass the limit check.
func (s *WishService) Create(ctx context.Context, owner uint, in WishInput) (*domain.Wish, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || len([]rune(title)) > maxWishTitle {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", ErrInvalidInput, maxWishTitle)
	}

	w := &domain.Wish{
		UserID:       owner,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Image:        strings.TrimSpace(in.Image),
		PurchaseLink: strings.TrimSpace(in.PurchaseLink),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockUser(ctx, tx, owner); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		existing, err := repo.ListWishes(ctx, tx, owner)
		if err != nil {
			return err
		}
		if len(existing) >= s.MaxWishes {
			return ErrWishLimit
		}
		taken := make(map[int]bool, len(existing))
		for _, e := range existing {
			taken[e.Position] = true
		}

		if in.Position != nil {
			p := *in.Position
			if p < 1 || p > domain.MaxWishPosition || taken[p] {
				return ErrInvalidPosition
			}
			w.Position = p
		} else {
			for p := 1; p <= domain.MaxWishPosition; p++ {
				if !taken[p] {
					w.Position = p
					break
				}
			}
			if w.Position == 0 {
				return ErrWishLimit
			}
		}
		return repo.CreateWish(ctx, tx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Update applies patch to owner's wish. Moving to an occupied position swaps
// the two wishes; moving past the last wish puts it last.
func (s *WishService) Update(ctx context.Context, owner, wishID uint, patch WishPatch) (*domain.Wish, error) {
	var w *domain.Wish
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockUser(ctx, tx, owner); err != nil {
			return notFoundAs(err, ErrWishNotFound)
		}
		var err error
		if w, err = repo.GetOwnedWish(ctx, tx, wishID, owner); err != nil {
			return notFoundAs(err, ErrWishNotFound)
		}

		moved := false
		if patch.Title != nil {
			t := strings.TrimSpace(*patch.Title)
			if t == "" || len([]rune(t)) > maxWishTitle {
				return fmt.Errorf("%w: title must be 1..%d characters", ErrInvalidInput, maxWishTitle)
			}
			w.Title = t
		}
		if patch.Description != nil {
			w.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Image != nil {
			w.Image = strings.TrimSpace(*patch.Image)
		}
		if patch.PurchaseLink != nil {
			w.PurchaseLink = strings.TrimSpace(*patch.PurchaseLink)
		}

		if patch.Position != nil && *patch.Position != w.Position {
			target := *patch.Position
			if target < 1 || target > domain.MaxWishPosition {
				return ErrInvalidPosition
			}
			siblings, err := repo.ListWishes(ctx, tx, owner)
			if err != nil {
				return err
			}
			for _, other := range siblings {
				if other.ID != w.ID && other.Position == target {
					if err := repo.SetWishPosition(ctx, tx, other.ID, w.Position); err != nil {
						return err
					}
					break
				}
			}
			w.Position = target
			moved = true
		}
		if err := repo.SaveWish(ctx, tx, w); err != nil {
			return err
		}
		if !moved {
			return nil
		}
		// A move into an empty slot past the end closes up to 1..n.
		if err := repo.CompactWishPositions(ctx, tx, owner); err != nil {
			return err
		}
		w, err = repo.GetOwnedWish(ctx, tx, wishID, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Delete removes owner's wish and compacts the remaining positions. The
// reserver of a reserved wish is notified.
func (s *WishService) Delete(ctx context.Context, owner, wishID uint) error {
	var w *domain.Wish
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockUser(ctx, tx, owner); err != nil {
			return notFoundAs(err, ErrWishNotFound)
		}
		var err error
		if w, err = repo.GetOwnedWish(ctx, tx, wishID, owner); err != nil {
			return notFoundAs(err, ErrWishNotFound)
		}
		if err := repo.DeleteWish(ctx, tx, w.ID); err != nil {
			return notFoundAs(err, ErrWishNotFound)
		}
		return repo.CompactWishPositions(ctx, tx, owner)
	})
	if err != nil {
		return err
	}

	if w.IsReserved && w.ReservedBy != nil {
		u, err := repo.GetUser(ctx, s.DB, owner)
		if err != nil {
			logFrom(ctx).Warn().Err(err).Uint("wish_id", w.ID).Msg("owner lookup for cancellation notice failed")
			return nil
		}
		s.Notifier.Notify(ctx, wishCancelledNotification(*w.ReservedBy, *w, *u, CancelReasonDeleted))
	}
	return nil
}

// ListOwn returns owner's wishes ordered by position.
func (s *WishService) ListOwn(ctx context.Context, owner uint) ([]domain.Wish, error) {
	out, err := repo.ListWishes(ctx, s.DB, owner)
	if out == nil {
		out = []domain.Wish{}
	}
	return out, err
}

// ListFor returns ownerID's wishes as seen by viewer. Another user's list is
// visible to accepted contacts, or to anyone when the owner made it public.
// A blocked relationship hides the list either way.
func (s *WishService) ListFor(ctx context.Context, viewer, ownerID uint) ([]domain.Wish, error) {
	if viewer == ownerID {
		return s.ListOwn(ctx, viewer)
	}
	if _, err := repo.GetUser(ctx, s.DB, ownerID); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	row, err := repo.FindContactBetween(ctx, s.DB, viewer, ownerID)
	switch {
	case err == nil && row.Status == domain.ContactBlocked:
		return nil, ErrForbidden
	case err == nil && row.Status == domain.ContactAccepted:
		return s.ListOwn(ctx, ownerID)
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	p, err := repo.GetOrCreatePrivacy(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	if !p.WishlistPublic {
		return nil, ErrForbidden
	}
	return s.ListOwn(ctx, ownerID)
}

// Reserve marks wishID as reserved by caller. Owners cannot reserve their own
// wishes and only accepted contacts of the owner may reserve.
func (s *WishService) Reserve(ctx context.Context, caller, wishID uint) (*domain.Wish, error) {
	w, err := repo.GetWish(ctx, s.DB, wishID)
	if err != nil {
		return nil, notFoundAs(err, ErrWishNotFound)
	}
	if w.UserID == caller {
		return nil, ErrOwnWish
	}
	ok, err := repo.AreContacts(ctx, s.DB, caller, w.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotContact
	}

	now := s.Now()
	won, err := repo.ReserveWish(ctx, s.DB, w.ID, caller, now)
	if err != nil {
		return nil, err
	}
	if !won {
		observability.WishReservations.WithLabelValues("conflict").Inc()
		return nil, ErrAlreadyReserved
	}
	observability.WishReservations.WithLabelValues("reserved").Inc()
	w.IsReserved = true
	w.ReservedBy = &caller
	w.ReservedAt = &now

	if by, err := repo.GetUser(ctx, s.DB, caller); err == nil {
		s.Notifier.Notify(ctx, wishReservedNotification(*w, *by))
	} else {
		logFrom(ctx).Warn().Err(err).Uint("wish_id", w.ID).Msg("reserver lookup for notification failed")
	}
	return w, nil
}

// CancelReservation clears caller's reservation of wishID. Anyone other than
// the reserver gets ErrNotReserver and the wish is left untouched.
func (s *WishService) CancelReservation(ctx context.Context, caller, wishID uint) (*domain.Wish, error) {
	w, err := repo.GetWish(ctx, s.DB, wishID)
	if err != nil {
		return nil, notFoundAs(err, ErrWishNotFound)
	}
	ok, err := repo.CancelReservation(ctx, s.DB, w.ID, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotReserver
	}
	observability.WishReservations.WithLabelValues("cancelled").Inc()
	w.IsReserved = false
	w.ReservedBy = nil
	w.ReservedAt = nil

	if by, err := repo.GetUser(ctx, s.DB, caller); err == nil {
		s.Notifier.Notify(ctx, wishCancelledNotification(w.UserID, *w, *by, CancelReasonReserver))
	} else {
		logFrom(ctx).Warn().Err(err).Uint("wish_id", w.ID).Msg("reserver lookup for notification failed")
	}
	return w, nil
}

// ListReservedBy returns the wishes caller currently holds a reservation on.
func (s *WishService) ListReservedBy(ctx context.Context, caller uint) ([]domain.Wish, error) {
	out, err := repo.ListReservedBy(ctx, s.DB, caller)
	if out == nil {
		out = []domain.Wish{}
	}
	return out, err
}

// Fingerprint summarizes owner's list for weak ETags.
func (s *WishService) Fingerprint(ctx context.Context, owner uint) (string, error) {
	count, maxTS, err := repo.WishesStats(ctx, s.DB, owner)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"wishes:%d:%d:%d"`, owner, count, ts), nil
}

// CancelReservationsBetween clears the reservations a and b hold on each
// other's wishes. tx is normally the caller's open transaction.
func CancelReservationsBetween(ctx context.Context, tx *gorm.DB, a, b uint) (int64, error) {
	n, err := repo.CancelReservationsBetween(ctx, tx, a, b)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.WishReservations.WithLabelValues("cascade_cancelled").Add(float64(n))
	}
	return n, nil
}

// CancelReservationsBy clears every reservation held by user.
func CancelReservationsBy(ctx context.Context, tx *gorm.DB, user uint) (int64, error) {
	n, err := repo.CancelReservationsBy(ctx, tx, user)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.WishReservations.WithLabelValues("cascade_cancelled").Add(float64(n))
	}
	return n, nil
}

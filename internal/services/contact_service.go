// Package services – ContactService
//
// This file implements the contact relationship state machine. A pair of
// users is linked by at most one row:
//
//	pending  -> accepted | rejected   (recipient answers)
//	pending | accepted -> blocked     (either party)
//	blocked  -> deleted               (only the blocker, via Unblock)
//	pending | accepted -> deleted     (either party, via Remove)
//
// Removing or blocking a relationship cancels every reservation either user
// holds on the other's wishes in the same transaction. Notifications are
// emitted after commit and are best-effort.
//
// A row the caller may not act on is reported as ErrContactNotFound, the same
// as a missing row.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/observability"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

// Directions of a contact row relative to the viewer.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// ContactView is a contact row as seen by one of its parties.
type ContactView struct {
	ID          uint                 `json:"id"`
	Status      domain.ContactStatus `json:"status"`
	Direction   string               `json:"direction"`
	Contact     domain.UserSummary   `json:"contact"`
	BlockedBy   *uint                `json:"blockedBy,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	RespondedAt *time.Time           `json:"respondedAt,omitempty"`
}

// BirthdayView is an upcoming birthday of an accepted contact.
type BirthdayView struct {
	User         domain.UserSummary `json:"user"`
	BirthDate    time.Time          `json:"birthDate"`
	NextBirthday time.Time          `json:"nextBirthday"`
	DaysUntil    int                `json:"daysUntil"`
	TurningAge   int                `json:"turningAge"`
}

// ContactService manages contact relationships.
type ContactService struct {
	DB       *gorm.DB
	Notifier Notifier
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, n Notifier) *ContactService {
	return &ContactService{DB: db, Notifier: n, Now: func() time.Time { return time.Now().UTC() }}
}

// SendRequest creates a pending row from caller to target. A previously
// rejected row is recycled with caller as the new requester; any other
// existing row yields ErrContactExists.
func (s *ContactService) SendRequest(ctx context.Context, caller, target uint) (*ContactView, error) {
	if caller == target {
		return nil, ErrSelfRequest
	}

	var (
		row       *domain.Contact
		sender    *domain.User
		recipient *domain.User
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if recipient, err = repo.GetUser(ctx, tx, target); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		if sender, err = repo.GetUser(ctx, tx, caller); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		existing, err := repo.FindContactBetween(ctx, tx, caller, target)
		switch {
		case err == nil && existing.Status == domain.ContactRejected:
			err = repo.TransitionContact(ctx, tx, existing.ID, domain.ContactRejected, map[string]any{
				"status":       domain.ContactPending,
				"user_id":      caller,
				"contact_id":   target,
				"responded_at": nil,
				"created_at":   s.Now(),
			})
			if err != nil {
				return notFoundAs(err, ErrContactExists)
			}
			row, err = repo.GetContact(ctx, tx, existing.ID)
			return err
		case err == nil:
			return ErrContactExists
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		row, err = repo.CreateContact(ctx, tx, caller, target)
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrContactExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.ContactTransitions.WithLabelValues(string(domain.ContactPending)).Inc()
	s.Notifier.Notify(ctx, contactRequestNotification(target, *sender))
	v := buildView(caller, *row, *recipient)
	return &v, nil
}

// Accept moves a pending row addressed to caller to accepted. The returned
// view's Contact is the original requester.
func (s *ContactService) Accept(ctx context.Context, caller, rowID uint) (*ContactView, error) {
	return s.answer(ctx, caller, rowID, domain.ContactAccepted)
}

// Reject moves a pending row addressed to caller to rejected.
func (s *ContactService) Reject(ctx context.Context, caller, rowID uint) (*ContactView, error) {
	return s.answer(ctx, caller, rowID, domain.ContactRejected)
}

// Respond dispatches to Accept or Reject by status.
func (s *ContactService) Respond(ctx context.Context, caller, rowID uint, status domain.ContactStatus) (*ContactView, error) {
	switch status {
	case domain.ContactAccepted, domain.ContactRejected:
		return s.answer(ctx, caller, rowID, status)
	default:
		return nil, ErrInvalidStatus
	}
}

func (s *ContactService) answer(ctx context.Context, caller, rowID uint, to domain.ContactStatus) (*ContactView, error) {
	row, err := repo.GetContact(ctx, s.DB, rowID)
	if err != nil {
		return nil, notFoundAs(err, ErrContactNotFound)
	}
	if row.ContactID != caller || row.Status != domain.ContactPending {
		return nil, ErrContactNotFound
	}

	now := s.Now()
	err = repo.TransitionContact(ctx, s.DB, rowID, domain.ContactPending, map[string]any{
		"status":       to,
		"responded_at": now,
	})
	if err != nil {
		return nil, notFoundAs(err, ErrContactNotFound)
	}
	row.Status = to
	row.RespondedAt = &now
	observability.ContactTransitions.WithLabelValues(string(to)).Inc()

	users, err := repo.GetUsersByID(ctx, s.DB, []uint{row.UserID, row.ContactID})
	if err != nil {
		return nil, err
	}
	if responder, ok := users[caller]; ok {
		s.Notifier.Notify(ctx, contactAnsweredNotification(row.UserID, responder, to == domain.ContactAccepted))
	}
	v := buildView(caller, *row, users[row.UserID])
	return &v, nil
}

// Remove deletes a pending or accepted row the caller is party to and
// cancels cross-reservations between the two users.
func (s *ContactService) Remove(ctx context.Context, caller, rowID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.activeRow(ctx, tx, caller, rowID)
		if err != nil {
			return err
		}
		if err := repo.DeleteContact(ctx, tx, row.ID); err != nil {
			return notFoundAs(err, ErrContactNotFound)
		}
		_, err = CancelReservationsBetween(ctx, tx, row.UserID, row.ContactID)
		return err
	})
}

// Block marks a pending or accepted row as blocked by caller and cancels
// cross-reservations.
func (s *ContactService) Block(ctx context.Context, caller, rowID uint) (*ContactView, error) {
	var row *domain.Contact
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if row, err = s.activeRow(ctx, tx, caller, rowID); err != nil {
			return err
		}
		now := s.Now()
		err = repo.TransitionContact(ctx, tx, row.ID, row.Status, map[string]any{
			"status":     domain.ContactBlocked,
			"blocked_by": caller,
			"blocked_at": now,
		})
		if err != nil {
			return notFoundAs(err, ErrContactNotFound)
		}
		row.Status = domain.ContactBlocked
		row.BlockedBy = &caller
		row.BlockedAt = &now
		_, err = CancelReservationsBetween(ctx, tx, row.UserID, row.ContactID)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.ContactTransitions.WithLabelValues(string(domain.ContactBlocked)).Inc()

	other, err := repo.GetUser(ctx, s.DB, row.Other(caller))
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	var summary domain.User
	if other != nil {
		summary = *other
	}
	v := buildView(caller, *row, summary)
	return &v, nil
}

// Unblock deletes a blocked row. Only the user who blocked may do so.
func (s *ContactService) Unblock(ctx context.Context, caller, rowID uint) error {
	row, err := repo.GetContact(ctx, s.DB, rowID)
	if err != nil {
		return notFoundAs(err, ErrContactNotFound)
	}
	if row.Status != domain.ContactBlocked || row.BlockedBy == nil || *row.BlockedBy != caller {
		return ErrContactNotFound
	}
	if err := repo.DeleteContact(ctx, s.DB, row.ID); err != nil {
		return notFoundAs(err, ErrContactNotFound)
	}
	observability.ContactTransitions.WithLabelValues("deleted").Inc()
	return nil
}

// List returns caller's rows, optionally narrowed to one status. Blocked rows
// are only visible to the blocker.
func (s *ContactService) List(ctx context.Context, caller uint, status domain.ContactStatus) ([]ContactView, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	rows, err := repo.ListContactsFor(ctx, s.DB, caller, status)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Other(caller))
	}
	users, err := repo.GetUsersByID(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ContactView, 0, len(rows))
	for _, r := range rows {
		out = append(out, buildView(caller, r, users[r.Other(caller)]))
	}
	return out, nil
}

// Fingerprint summarizes caller's visible rows for weak ETags.
func (s *ContactService) Fingerprint(ctx context.Context, caller uint) (string, error) {
	count, maxTS, err := repo.ContactsStats(ctx, s.DB, caller)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"contacts:%d:%d:%d"`, caller, count, ts), nil
}

// AreContacts reports whether an accepted row links a and b.
func (s *ContactService) AreContacts(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	return repo.AreContacts(ctx, s.DB, a, b)
}

// UpcomingBirthdays lists accepted contacts whose birthday falls within the
// next days days (today included), closest first. Contacts hiding their birth
// date are skipped. With notify set, a birthday notification is emitted once
// per contact and year.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, caller uint, days int, notify bool) ([]BirthdayView, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must be >= 0", ErrInvalidInput)
	}
	if days > 366 {
		days = 366
	}

	ids, err := repo.AcceptedContactIDs(ctx, s.DB, caller)
	if err != nil {
		return nil, err
	}
	users, err := repo.GetUsersByID(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	privacy, err := repo.GetPrivacyFor(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]BirthdayView, 0)
	for _, id := range ids {
		u, ok := users[id]
		if !ok || u.BirthDate == nil || !privacy[id].ShowBirthDate {
			continue
		}
		next := domain.NextBirthday(*u.BirthDate, now)
		until := int(next.Sub(today).Hours() / 24)
		if until > days {
			continue
		}
		out = append(out, BirthdayView{
			User:         u.Summary(),
			BirthDate:    *u.BirthDate,
			NextBirthday: next,
			DaysUntil:    until,
			TurningAge:   next.Year() - u.BirthDate.Year(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].User.Nickname < out[j].User.Nickname
	})

	if notify {
		for _, b := range out {
			s.notifyBirthday(ctx, caller, b)
		}
	}
	return out, nil
}

func (s *ContactService) notifyBirthday(ctx context.Context, recipient uint, b BirthdayView) {
	year := b.NextBirthday.Year()
	seen, err := repo.HasTaggedNotification(ctx, s.DB, recipient, domain.NotifyBirthday, b.User.ID, "year", year)
	if err != nil {
		logFrom(ctx).Warn().Err(err).Uint("recipient", recipient).Msg("birthday dedup lookup failed")
		return
	}
	if seen {
		return
	}
	msg := fmt.Sprintf("%s's birthday is in %d days", b.User.Nickname, b.DaysUntil)
	switch b.DaysUntil {
	case 0:
		msg = fmt.Sprintf("%s's birthday is today", b.User.Nickname)
	case 1:
		msg = fmt.Sprintf("%s's birthday is tomorrow", b.User.Nickname)
	}
	s.Notifier.Notify(ctx, &domain.Notification{
		UserID:        recipient,
		Type:          domain.NotifyBirthday,
		Title:         "Upcoming birthday",
		Message:       msg,
		RelatedUserID: uintPtr(b.User.ID),
		Metadata:      domain.Metadata{"year": year, "daysUntil": b.DaysUntil},
	})
}

// activeRow loads a pending or accepted row caller is party to.
func (s *ContactService) activeRow(ctx context.Context, db *gorm.DB, caller, rowID uint) (*domain.Contact, error) {
	row, err := repo.GetContact(ctx, db, rowID)
	if err != nil {
		return nil, notFoundAs(err, ErrContactNotFound)
	}
	if !row.Involves(caller) {
		return nil, ErrContactNotFound
	}
	if row.Status != domain.ContactPending && row.Status != domain.ContactAccepted {
		return nil, ErrContactNotFound
	}
	return row, nil
}

func buildView(viewer uint, row domain.Contact, other domain.User) ContactView {
	dir := DirectionIncoming
	if row.UserID == viewer {
		dir = DirectionOutgoing
	}
	summary := other.Summary()
	if summary.ID == 0 {
		summary.ID = row.Other(viewer)
	}
	return ContactView{
		ID:          row.ID,
		Status:      row.Status,
		Direction:   dir,
		Contact:     summary,
		BlockedBy:   row.BlockedBy,
		CreatedAt:   row.CreatedAt,
		RespondedAt: row.RespondedAt,
	}
}

// notFoundAs maps repo.ErrNotFound to target and passes other errors through.
func notFoundAs(err, target error) error {
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// Package services – NotificationService
//
// Notifications are a side channel of other operations. Notify never fails
// the caller: a persistence error is logged and counted, and the primary
// operation keeps its result. Successful inserts invalidate the cached unread
// counter and are pushed to any live WebSocket of the recipient.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/cache"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/observability"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/realtime"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/utils"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

// Publisher delivers realtime events to connected users.
type Publisher interface {
	Publish(userID uint, msg realtime.Message) int
}

// Notifier is the fan-out contract used by the other services.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification)
}

// NotificationPage is one page of a recipient's notifications.
type NotificationPage struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	TotalPages    int                   `json:"totalPages"`
}

// NotificationService persists, lists and fans out notifications.
type NotificationService struct {
	DB    *gorm.DB
	Cache cache.Counter
	Hub   Publisher
}

// NewNotificationService wires the service. A nil counter disables caching
// and a nil hub disables realtime push.
func NewNotificationService(db *gorm.DB, c cache.Counter, hub Publisher) *NotificationService {
	if c == nil {
		c = cache.Noop{}
	}
	return &NotificationService{DB: db, Cache: c, Hub: hub}
}

// Notify stores n for its recipient. Failures are logged and counted but not
// returned.
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) {
	if n == nil || n.UserID == 0 {
		return
	}
	if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
		observability.NotificationsDropped.WithLabelValues(string(n.Type)).Inc()
		logFrom(ctx).Error().
			Err(err).
			Uint("recipient", n.UserID).
			Str("type", string(n.Type)).
			Msg("notification dropped")
		return
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	s.invalidate(ctx, n.UserID)
	if s.Hub != nil {
		s.Hub.Publish(n.UserID, realtime.Message{Type: "notification", Data: n})
	}
}

// List returns one page of uid's notifications, newest first. page < 1 is
// treated as 1; limit is clamped to 1..50 with 20 as the default.
func (s *NotificationService) List(ctx context.Context, uid uint, page, limit int, unreadOnly bool) (*NotificationPage, error) {
	pg := utils.NewPage(page, limit, defaultNotificationLimit, maxNotificationLimit)

	total, err := repo.CountNotifications(ctx, s.DB, uid, unreadOnly)
	if err != nil {
		return nil, err
	}
	out := &NotificationPage{
		Notifications: []domain.Notification{},
		Total:         total,
		Page:          pg.Number,
		Limit:         pg.Limit,
		TotalPages:    pg.TotalPages(total),
	}
	if total == 0 {
		return out, nil
	}
	items, err := repo.ListNotificationsPage(ctx, s.DB, uid, unreadOnly, pg.Offset(), pg.Limit)
	if err != nil {
		return nil, err
	}
	out.Notifications = items
	return out, nil
}

// MarkRead flags notification id as read and returns it. Only the recipient
// may do so; anyone else gets ErrNotificationNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, uid, id uint) (*domain.Notification, error) {
	if err := repo.MarkNotificationRead(ctx, s.DB, id, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, uid)
	n, err := repo.GetNotification(ctx, s.DB, id, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

// MarkAllRead flags every unread notification of uid and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, uid uint) (int64, error) {
	n, err := repo.MarkAllNotificationsRead(ctx, s.DB, uid)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, uid)
	return n, nil
}

// UnreadCount returns uid's unread count, served from the cache when present.
// A miss caches the counted value only if no invalidation happened since the
// count began.
func (s *NotificationService) UnreadCount(ctx context.Context, uid uint) (int64, error) {
	if n, ok, err := s.Cache.Get(ctx, uid); err == nil && ok {
		return n, nil
	} else if err != nil {
		logFrom(ctx).Warn().Err(err).Uint("user_id", uid).Msg("unread cache read failed")
	}

	stamp, stampErr := s.Cache.Stamp(ctx, uid)
	n, err := repo.CountNotifications(ctx, s.DB, uid, true)
	if err != nil {
		return 0, err
	}
	if stampErr != nil {
		logFrom(ctx).Warn().Err(stampErr).Uint("user_id", uid).Msg("unread cache stamp failed")
		return n, nil
	}
	if err := s.Cache.Set(ctx, uid, n, stamp); err != nil {
		logFrom(ctx).Warn().Err(err).Uint("user_id", uid).Msg("unread cache write failed")
	}
	return n, nil
}

// Delete removes notification id of uid.
func (s *NotificationService) Delete(ctx context.Context, uid, id uint) error {
	if err := repo.DeleteNotification(ctx, s.DB, id, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	s.invalidate(ctx, uid)
	return nil
}

func (s *NotificationService) invalidate(ctx context.Context, uid uint) {
	if err := s.Cache.Invalidate(ctx, uid); err != nil {
		logFrom(ctx).Warn().Err(err).Uint("user_id", uid).Msg("unread cache invalidate failed")
	}
}

// logFrom returns the request-scoped logger when one is attached to ctx and
// the global logger otherwise.
func logFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// Notification builders keep titles and messages in one place.

func uintPtr(v uint) *uint { return &v }

func contactRequestNotification(to uint, from domain.User) *domain.Notification {
	return &domain.Notification{
		UserID:        to,
		Type:          domain.NotifyContactRequest,
		Title:         "New contact request",
		Message:       fmt.Sprintf("%s wants to add you as a contact", from.Nickname),
		RelatedUserID: uintPtr(from.ID),
	}
}

func contactAnsweredNotification(requester uint, responder domain.User, accepted bool) *domain.Notification {
	n := &domain.Notification{
		UserID:        requester,
		Type:          domain.NotifyContactRejected,
		Title:         "Contact request declined",
		Message:       fmt.Sprintf("%s declined your contact request", responder.Nickname),
		RelatedUserID: uintPtr(responder.ID),
	}
	if accepted {
		n.Type = domain.NotifyContactAccepted
		n.Title = "Contact request accepted"
		n.Message = fmt.Sprintf("%s accepted your contact request", responder.Nickname)
	}
	return n
}

func wishReservedNotification(w domain.Wish, by domain.User) *domain.Notification {
	return &domain.Notification{
		UserID:        w.UserID,
		Type:          domain.NotifyWishReserved,
		Title:         "Someone reserved one of your wishes",
		Message:       fmt.Sprintf("%s reserved \"%s\"", by.Nickname, w.Title),
		RelatedUserID: uintPtr(by.ID),
		RelatedWishID: uintPtr(w.ID),
	}
}

func wishCancelledNotification(recipient uint, w domain.Wish, by domain.User, reason string) *domain.Notification {
	return &domain.Notification{
		UserID:        recipient,
		Type:          domain.NotifyWishCancelled,
		Title:         "Reservation cancelled",
		Message:       fmt.Sprintf("The reservation of \"%s\" was cancelled", w.Title),
		RelatedUserID: uintPtr(by.ID),
		RelatedWishID: uintPtr(w.ID),
		Metadata:      domain.Metadata{"reason": reason},
	}
}

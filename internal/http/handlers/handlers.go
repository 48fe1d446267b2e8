package handlers

import (
	"context"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService registers and authenticates accounts.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Me(ctx context.Context, uid uint) (*domain.User, error)
	ParseToken(tok string) (uint, error)
}

// ProfileService reads and edits user profiles and privacy settings.
type ProfileService interface {
	Get(ctx context.Context, viewer, userID uint) (*services.Profile, error)
	UpdateMe(ctx context.Context, uid uint, patch services.ProfilePatch) (*domain.User, error)
	GetPrivacy(ctx context.Context, uid uint) (*domain.PrivacySettings, error)
	UpdatePrivacy(ctx context.Context, uid uint, patch services.PrivacyPatch) (*domain.PrivacySettings, error)
	Search(ctx context.Context, viewer uint, q string, limit int) ([]domain.UserSummary, error)
	DeleteAccount(ctx context.Context, uid uint) error
}

// ContactService manages the relationship between two users.
type ContactService interface {
	SendRequest(ctx context.Context, caller, target uint) (*services.ContactView, error)
	Accept(ctx context.Context, caller, rowID uint) (*services.ContactView, error)
	Reject(ctx context.Context, caller, rowID uint) (*services.ContactView, error)
	Respond(ctx context.Context, caller, rowID uint, status domain.ContactStatus) (*services.ContactView, error)
	Remove(ctx context.Context, caller, rowID uint) error
	Block(ctx context.Context, caller, rowID uint) (*services.ContactView, error)
	Unblock(ctx context.Context, caller, rowID uint) error
	List(ctx context.Context, caller uint, status domain.ContactStatus) ([]services.ContactView, error)
	Fingerprint(ctx context.Context, caller uint) (string, error)
	UpcomingBirthdays(ctx context.Context, caller uint, days int, notify bool) ([]services.BirthdayView, error)
}

// WishService manages wish lists and reservations.
type WishService interface {
	Create(ctx context.Context, owner uint, in services.WishInput) (*domain.Wish, error)
	Update(ctx context.Context, owner, wishID uint, patch services.WishPatch) (*domain.Wish, error)
	Delete(ctx context.Context, owner, wishID uint) error
	ListOwn(ctx context.Context, owner uint) ([]domain.Wish, error)
	ListFor(ctx context.Context, viewer, ownerID uint) ([]domain.Wish, error)
	Reserve(ctx context.Context, caller, wishID uint) (*domain.Wish, error)
	CancelReservation(ctx context.Context, caller, wishID uint) (*domain.Wish, error)
	ListReservedBy(ctx context.Context, caller uint) ([]domain.Wish, error)
	Fingerprint(ctx context.Context, owner uint) (string, error)
}

// NotificationService lists and updates a user's notifications.
type NotificationService interface {
	List(ctx context.Context, uid uint, page, limit int, unreadOnly bool) (*services.NotificationPage, error)
	MarkRead(ctx context.Context, uid, id uint) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, uid uint) (int64, error)
	UnreadCount(ctx context.Context, uid uint) (int64, error)
	Delete(ctx context.Context, uid, id uint) error
}

// ReputationService records and tallies votes.
type ReputationService interface {
	Vote(ctx context.Context, from, to uint, in services.VoteInput) (*domain.ReputationVote, error)
	Tally(ctx context.Context, uid uint) (*domain.ReputationTally, error)
}

//
// Handler wiring
//

// Deps bundles the services the handlers depend on.
type Deps struct {
	Auth          AuthService
	Profiles      ProfileService
	Contacts      ContactService
	Wishes        WishService
	Notifications NotificationService
	Reputation    ReputationService
	Stream        Streamer
}

// Handlers groups every HTTP endpoint of the API. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	auth     AuthService
	profiles ProfileService
	contacts ContactService
	wishes   WishService
	notifs   NotificationService
	rep      ReputationService
	stream   Streamer
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		auth:     d.Auth,
		profiles: d.Profiles,
		contacts: d.Contacts,
		wishes:   d.Wishes,
		notifs:   d.Notifications,
		rep:      d.Reputation,
		stream:   d.Stream,
	}
}

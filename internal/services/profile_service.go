// Package services – ProfileService
//
// Profiles of other users are filtered through the owner's PrivacySettings.
// Deleting an account removes every row that references the user in one
// transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/utils"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50

	CancelReasonAccountDeleted = "account_deleted"
)

// Address is the postal address block of a profile.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Province   string `json:"province"`
	Country    string `json:"country"`
}

// Profile is a user as seen by a viewer. Hidden fields are omitted.
type Profile struct {
	ID           uint       `json:"id"`
	Nickname     string     `json:"nickname"`
	ProfileImage string     `json:"profileImage,omitempty"`
	Email        string     `json:"email,omitempty"`
	RealName     string     `json:"realName,omitempty"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	Age          *int       `json:"age,omitempty"`
	Address      *Address   `json:"address,omitempty"`
	IsContact    bool       `json:"isContact"`
}

// ProfilePatch carries optional profile updates.
type ProfilePatch struct {
	Email        *string    `json:"email"        binding:"omitempty,email"`
	Nickname     *string    `json:"nickname"     binding:"omitempty,nickname"`
	RealName     *string    `json:"realName"     binding:"omitempty,max=120"`
	BirthDate    *time.Time `json:"birthDate"`
	ProfileImage *string    `json:"profileImage" binding:"omitempty,max=512"`
	Street       *string    `json:"street"       binding:"omitempty,max=160"`
	City         *string    `json:"city"         binding:"omitempty,max=120"`
	PostalCode   *string    `json:"postalCode"   binding:"omitempty,max=20"`
	Province     *string    `json:"province"     binding:"omitempty,max=120"`
	Country      *string    `json:"country"      binding:"omitempty,max=120"`
}

// PrivacyPatch carries optional privacy updates.
type PrivacyPatch struct {
	ShowEmail      *bool `json:"showEmail"`
	ShowBirthDate  *bool `json:"showBirthDate"`
	ShowAge        *bool `json:"showAge"`
	ShowRealName   *bool `json:"showRealName"`
	ShowAddress    *bool `json:"showAddress"`
	WishlistPublic *bool `json:"wishlistPublic"`
}

// ProfileService reads and maintains user profiles.
type ProfileService struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, n Notifier) *ProfileService {
	return &ProfileService{DB: db, Notifier: n, Now: func() time.Time { return time.Now().UTC() }}
}

// Get returns userID's profile as seen by viewer. The owner sees every field.
func (s *ProfileService) Get(ctx context.Context, viewer, userID uint) (*Profile, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	u.RefreshAge(s.Now())
	if viewer == userID {
		return buildProfile(*u, domain.PrivacySettings{
			ShowEmail: true, ShowBirthDate: true, ShowAge: true, ShowRealName: true, ShowAddress: true,
		}, false), nil
	}

	p, err := repo.GetOrCreatePrivacy(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	isContact, err := repo.AreContacts(ctx, s.DB, viewer, userID)
	if err != nil {
		return nil, err
	}
	return buildProfile(*u, *p, isContact), nil
}

func buildProfile(u domain.User, p domain.PrivacySettings, isContact bool) *Profile {
	out := &Profile{
		ID:           u.ID,
		Nickname:     u.Nickname,
		ProfileImage: u.ProfileImage,
		IsContact:    isContact,
	}
	if p.ShowEmail {
		out.Email = u.Email
	}
	if p.ShowRealName {
		out.RealName = u.RealName
	}
	if p.ShowBirthDate {
		out.BirthDate = u.BirthDate
	}
	if p.ShowAge && u.BirthDate != nil {
		age := u.Age
		out.Age = &age
	}
	if p.ShowAddress {
		out.Address = &Address{
			Street:     u.Street,
			City:       u.City,
			PostalCode: u.PostalCode,
			Province:   u.Province,
			Country:    u.Country,
		}
	}
	return out
}

// UpdateMe applies patch to uid's account.
func (s *ProfileService) UpdateMe(ctx context.Context, uid uint, patch ProfilePatch) (*domain.User, error) {
	var u *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if u, err = repo.GetUser(ctx, tx, uid); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		if patch.Email != nil {
			email := domain.NormalizeEmail(*patch.Email)
			if err := fieldValidator.Var(email, "required,email,max=255"); err != nil {
				return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
			}
			if email != u.Email {
				taken, err := repo.EmailTaken(ctx, tx, email, uid)
				if err != nil {
					return err
				}
				if taken {
					return ErrEmailTaken
				}
				u.Email = email
			}
		}
		if patch.Nickname != nil {
			nick := strings.TrimSpace(*patch.Nickname)
			if !ValidNickname(nick) {
				return fmt.Errorf("%w: nickname must be 3..30 letters, digits, '_', '.' or '-'", ErrInvalidInput)
			}
			key := domain.NicknameKey(nick)
			taken, err := repo.NicknameTaken(ctx, tx, key, uid)
			if err != nil {
				return err
			}
			if taken {
				return ErrNicknameTaken
			}
			u.Nickname, u.NicknameKey = nick, key
		}
		if patch.BirthDate != nil {
			if patch.BirthDate.After(s.Now()) {
				return fmt.Errorf("%w: birth date is in the future", ErrInvalidInput)
			}
			u.BirthDate = dateOnly(patch.BirthDate)
		}
		setTrimmed(&u.RealName, patch.RealName)
		setTrimmed(&u.ProfileImage, patch.ProfileImage)
		setTrimmed(&u.Street, patch.Street)
		setTrimmed(&u.City, patch.City)
		setTrimmed(&u.PostalCode, patch.PostalCode)
		setTrimmed(&u.Province, patch.Province)
		setTrimmed(&u.Country, patch.Country)
		u.RefreshAge(s.Now())

		if err := repo.SaveUser(ctx, tx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrNicknameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// GetPrivacy returns uid's settings, creating the defaults on first access.
func (s *ProfileService) GetPrivacy(ctx context.Context, uid uint) (*domain.PrivacySettings, error) {
	return repo.GetOrCreatePrivacy(ctx, s.DB, uid)
}

// UpdatePrivacy applies patch to uid's settings.
func (s *ProfileService) UpdatePrivacy(ctx context.Context, uid uint, patch PrivacyPatch) (*domain.PrivacySettings, error) {
	p, err := repo.GetOrCreatePrivacy(ctx, s.DB, uid)
	if err != nil {
		return nil, err
	}
	for dst, v := range map[*bool]*bool{
		&p.ShowEmail:      patch.ShowEmail,
		&p.ShowBirthDate:  patch.ShowBirthDate,
		&p.ShowAge:        patch.ShowAge,
		&p.ShowRealName:   patch.ShowRealName,
		&p.ShowAddress:    patch.ShowAddress,
		&p.WishlistPublic: patch.WishlistPublic,
	} {
		if v != nil {
			*dst = *v
		}
	}
	if err := repo.SavePrivacy(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Search finds users whose nickname starts with q, case-insensitively. The
// viewer is never part of the result.
func (s *ProfileService) Search(ctx context.Context, viewer uint, q string, limit int) ([]domain.UserSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	limit = utils.ClampLimit(limit, defaultSearchLimit, maxSearchLimit)
	users, err := repo.SearchUsers(ctx, s.DB, domain.NicknameKey(q), viewer, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}

// DeleteAccount removes uid and everything that references it. Users holding
// reservations on the deleted wishes are notified after commit.
func (s *ProfileService) DeleteAccount(ctx context.Context, uid uint) error {
	var (
		owner    *domain.User
		reserved []domain.Wish
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if owner, err = repo.GetUser(ctx, tx, uid); err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		wishes, err := repo.ListWishes(ctx, tx, uid)
		if err != nil {
			return err
		}
		for _, w := range wishes {
			if w.IsReserved && w.ReservedBy != nil {
				reserved = append(reserved, w)
			}
		}

		if _, err := CancelReservationsBy(ctx, tx, uid); err != nil {
			return err
		}
		if _, err := repo.DeleteContactsOf(ctx, tx, uid); err != nil {
			return err
		}
		if _, err := repo.DeleteWishesOf(ctx, tx, uid); err != nil {
			return err
		}
		if _, err := repo.DeleteNotificationsOf(ctx, tx, uid); err != nil {
			return err
		}
		if _, err := repo.DeleteVotesOf(ctx, tx, uid); err != nil {
			return err
		}
		if err := repo.DeletePrivacy(ctx, tx, uid); err != nil {
			return err
		}
		return notFoundAs(repo.DeleteUser(ctx, tx, uid), ErrUserNotFound)
	})
	if err != nil {
		return err
	}

	for _, w := range reserved {
		s.Notifier.Notify(ctx, wishCancelledNotification(*w.ReservedBy, w, *owner, CancelReasonAccountDeleted))
	}
	logFrom(ctx).Info().Uint("user_id", uid).Int("released_wishes", len(reserved)).Msg("account deleted")
	return nil
}

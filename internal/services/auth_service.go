// Package services – AuthService
//
// Accounts authenticate with email and password (bcrypt) and receive an
// HS256 JWT whose subject is the numeric user id.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/domain"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/repo"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
	tokenIssuer    = "gifiti"
)

var nicknameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{3,30}$`)

// fieldValidator checks single values (email format). Validators are safe for
// concurrent use.
var fieldValidator = validator.New()

// ValidNickname reports whether s is 3..30 characters of letters, digits,
// underscore, dot or dash.
func ValidNickname(s string) bool { return nicknameRe.MatchString(s) }

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email     string     `json:"email"     binding:"required,email"`
	Password  string     `json:"password"  binding:"required,min=8,max=72"`
	Nickname  string     `json:"nickname"  binding:"required,nickname"`
	RealName  string     `json:"realName"  binding:"max=120"`
	BirthDate *time.Time `json:"birthDate"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService registers and authenticates accounts.
type AuthService struct {
	DB     *gorm.DB
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// NewAuthService constructs an AuthService signing tokens with secret.
func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, Secret: []byte(secret), TTL: ttl, Now: func() time.Time { return time.Now().UTC() }}
}

// Register creates an account with default privacy settings and returns it
// with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	nickname := strings.TrimSpace(in.Nickname)
	if err := fieldValidator.Var(email, "required,email,max=255"); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d..%d characters", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}
	if !ValidNickname(nickname) {
		return nil, fmt.Errorf("%w: nickname must be 3..30 letters, digits, '_', '.' or '-'", ErrInvalidInput)
	}
	now := s.Now()
	if in.BirthDate != nil && in.BirthDate.After(now) {
		return nil, fmt.Errorf("%w: birth date is in the future", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     nickname,
		NicknameKey:  domain.NicknameKey(nickname),
		RealName:     strings.TrimSpace(in.RealName),
		BirthDate:    dateOnly(in.BirthDate),
	}
	u.RefreshAge(now)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := repo.EmailTaken(ctx, tx, email, 0); err != nil {
			return err
		} else if taken {
			return ErrEmailTaken
		}
		if taken, err := repo.NicknameTaken(ctx, tx, u.NicknameKey, 0); err != nil {
			return err
		} else if taken {
			return ErrNicknameTaken
		}
		if err := repo.CreateUser(ctx, tx, u); err != nil {
			return err
		}
		_, err := repo.GetOrCreatePrivacy(ctx, tx, u.ID)
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost a race with a concurrent registration.
		err = s.duplicateCause(ctx, email, u.NicknameKey)
	}
	if err != nil {
		return nil, err
	}

	tok, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: tok}, nil
}

// duplicateCause names the unique column a concurrent registration claimed
// first. Email wins when both or neither are found.
func (s *AuthService) duplicateCause(ctx context.Context, email, nicknameKey string) error {
	if taken, err := repo.EmailTaken(ctx, s.DB, email, 0); err == nil && taken {
		return ErrEmailTaken
	}
	if taken, err := repo.NicknameTaken(ctx, s.DB, nicknameKey, 0); err == nil && taken {
		return ErrNicknameTaken
	}
	return ErrEmailTaken
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	u.RefreshAge(s.Now())
	tok, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: tok}, nil
}

// Me returns the caller's own unfiltered account.
func (s *AuthService) Me(ctx context.Context, uid uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, uid)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	u.RefreshAge(s.Now())
	return u, nil
}

// IssueToken signs a token for uid.
func (s *AuthService) IssueToken(uid uint) (string, error) {
	now := s.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(uid), 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseToken validates tok and returns the user id it was issued for.
func (s *AuthService) ParseToken(tok string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims,
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/user"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so a caller cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountBlocked is reported before the password is checked. This
	// discloses blocked status to anyone who knows the email; the behavior
	// is deliberate so blocked users get a clear signal.
	ErrAccountBlocked = errors.New("account is blocked")
	ErrInvalidToken   = errors.New("invalid confirmation token")
)

// confirmationSendTimeout bounds the fire-and-forget email dispatch so a
// stalled SMTP relay cannot leak goroutines indefinitely.
const confirmationSendTimeout = 15 * time.Second

// Service implements the account lifecycle: registration with email
// confirmation, login, and session token mint/validation.
type Service struct {
	config      *config.AuthConfig
	frontendURL string
	log         *zap.Logger
	repository  user.Repository
	notifier    notify.Notifier
}

func NewService(cfg *config.AuthConfig, frontendURL string, log *zap.Logger, repo user.Repository, notifier notify.Notifier) *Service {
	return &Service{
		config:      cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		repository:  repo,
		notifier:    notifier,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates an Unverified account and dispatches the confirmation
// email. Email uniqueness is left entirely to the store's unique index;
// there is no read-before-insert check, so two concurrent registrations
// of the same email race at the database and exactly one wins. The email
// dispatch is best-effort: it runs on its own goroutine outside the
// write's failure domain and a delivery error never fails the
// registration.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (*user.User, error) {
	passwordHash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := user.New(firstName, lastName, strings.TrimSpace(email), passwordHash)

	if err := s.repository.Create(ctx, u); err != nil {
		return nil, err
	}

	s.dispatchConfirmation(u.Email, *u.EmailConfirmationToken)

	return u, nil
}

func (s *Service) dispatchConfirmation(email, token string) {
	link := s.frontendURL + "/confirm-email?token=" + token

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), confirmationSendTimeout)
		defer cancel()

		if err := s.notifier.SendConfirmation(ctx, email, link); err != nil {
			s.log.Error("failed to send confirmation email",
				zap.String("email", email),
				zap.Error(err))
		}
	}()
}

// Login verifies credentials and records the login time. The whole
// read-check-write sequence runs in one store transaction. Blocked
// accounts are rejected before the password check.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	var logged *user.User

	err := s.repository.Transaction(ctx, func(repo user.Repository) error {
		u, err := repo.FindByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if u.Status == user.StatusBlocked {
			return ErrAccountBlocked
		}

		if !s.CheckPasswordHash(password, u.PasswordHash) {
			return ErrInvalidCredentials
		}

		u.RecordLogin()
		if err := repo.Update(ctx, u); err != nil {
			return err
		}

		logged = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return logged, nil
}

// ConfirmEmail consumes a confirmation token: the account becomes Active
// and the token is cleared in one transaction. A token that does not
// resolve, including one already consumed, yields ErrInvalidToken; a
// second click on the same link is an error, not a silent success.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	return s.repository.Transaction(ctx, func(repo user.Repository) error {
		u, err := repo.FindByConfirmationToken(ctx, token)
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		u.ConfirmEmail()
		return repo.Update(ctx, u)
	})
}

// Claims is the session token payload. Subject carries the account id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// IssueSession mints the signed session token for a logged-in account.
func (s *Service) IssueSession(u *user.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: u.Email,
		Name:  u.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateSession parses and verifies a session token. It does not check
// account state; the middleware re-resolves the account on every request.
func (s *Service) ValidateSession(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid session token")
	}

	return claims, nil
}

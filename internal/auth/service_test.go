package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/internal/user"
)

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifier := newTestService(t)

	u, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, user.StatusUnverified, u.Status)
	require.NotNil(t, u.EmailConfirmationToken)
	assert.True(t, svc.CheckPasswordHash("secret123", u.PasswordHash))
	assert.NotEqual(t, "secret123", u.PasswordHash)

	stored, err := repo.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.StatusUnverified, stored.Status)
	require.NotNil(t, stored.EmailConfirmationToken)

	// The confirmation email is dispatched off the request path.
	assert.Eventually(t, func() bool {
		return len(notifier.sent()) == 1
	}, time.Second, 10*time.Millisecond)

	call := notifier.sent()[0]
	assert.Equal(t, "jane@example.com", call.To)
	assert.Equal(t, testFrontendURL+"/confirm-email?token="+*u.EmailConfirmationToken, call.Link)
}

func TestService_Register_TrailingSlashFrontendURL(t *testing.T) {
	repo := user.NewMemoryRepository()
	notifier := &mockNotifier{}
	svc := NewService(newTestConfig(), testFrontendURL+"/", newTestLogger(t), repo, notifier)

	u, err := svc.Register(context.Background(), "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(notifier.sent()) == 1
	}, time.Second, 10*time.Millisecond)

	link := notifier.sent()[0].Link
	assert.Equal(t, testFrontendURL+"/confirm-email?token="+*u.EmailConfirmationToken, link)
	assert.NotContains(t, link, "//confirm-email")
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	_, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "John", "Doe", "jane@example.com", "other456")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	// Exactly one account exists for the email.
	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestService_Register_DuplicateEmailConcurrent(t *testing.T) {
	// Concurrent registrations of the same email race at the store's
	// unique constraint; exactly one wins.
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	const racers = 8
	results := make(chan error, racers)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
			results <- err
		}()
	}
	start.Done()

	var ok, duplicate int
	for i := 0; i < racers; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case errors.Is(err, user.ErrDuplicateEmail):
			duplicate++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, duplicate)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestService_Register_NotifierFailureDoesNotFailRegistration(t *testing.T) {
	ctx := context.Background()
	repo := user.NewMemoryRepository()
	notifier := &mockNotifier{err: assert.AnError}
	svc := NewService(newTestConfig(), testFrontendURL, newTestLogger(t), repo, notifier)

	u, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, u.ID)
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(notifier.sent()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *Service) *user.User {
		u, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
		require.NoError(t, err)
		return u
	}

	tests := []struct {
		name     string
		setup    func(t *testing.T, svc *Service, repo user.Repository)
		email    string
		password string
		wantErr  error
	}{
		{
			name: "valid credentials",
			setup: func(t *testing.T, svc *Service, repo user.Repository) {
				register(t, svc)
			},
			email:    "jane@example.com",
			password: "secret123",
		},
		{
			name:     "unknown email",
			setup:    func(t *testing.T, svc *Service, repo user.Repository) {},
			email:    "nobody@example.com",
			password: "secret123",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			setup: func(t *testing.T, svc *Service, repo user.Repository) {
				register(t, svc)
			},
			email:    "jane@example.com",
			password: "wrong",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "blocked account with correct password",
			setup: func(t *testing.T, svc *Service, repo user.Repository) {
				u := register(t, svc)
				u.Block()
				require.NoError(t, repo.Update(ctx, u))
			},
			email:    "jane@example.com",
			password: "secret123",
			wantErr:  ErrAccountBlocked,
		},
		{
			name: "blocked account with wrong password still reports blocked",
			setup: func(t *testing.T, svc *Service, repo user.Repository) {
				u := register(t, svc)
				u.Block()
				require.NoError(t, repo.Update(ctx, u))
			},
			email:    "jane@example.com",
			password: "wrong",
			wantErr:  ErrAccountBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			tt.setup(t, svc, repo)

			before := time.Now().UTC()
			u, err := svc.Login(ctx, tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, u.LastLoginTime)
			assert.False(t, u.LastLoginTime.Before(before))

			stored, err := repo.FindByEmail(ctx, tt.email)
			require.NoError(t, err)
			require.NotNil(t, stored.LastLoginTime)
		})
	}
}

func TestService_Login_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "secret123")
	_, wrongErr := svc.Login(ctx, "jane@example.com", "wrong")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestService_ConfirmEmail(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	u, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "secret123")
	require.NoError(t, err)
	token := *u.EmailConfirmationToken

	require.NoError(t, svc.ConfirmEmail(ctx, token))

	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.StatusActive, stored.Status)
	assert.Nil(t, stored.EmailConfirmationToken)

	// A consumed token no longer resolves; the second click is an error.
	err = svc.ConfirmEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ConfirmEmail_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.ConfirmEmail(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_SessionRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := user.New("Jane", "Doe", "jane@example.com", "hashed")
	token, err := svc.IssueSession(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Jane Doe", claims.Name)
}

func TestService_ValidateSession(t *testing.T) {
	tests := []struct {
		name       string
		setupToken func(t *testing.T) string
		wantErr    bool
	}{
		{
			name: "valid token",
			setupToken: func(t *testing.T) string {
				svc, _, _ := newTestService(t)
				token, err := svc.IssueSession(user.New("Jane", "Doe", "jane@example.com", "h"))
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "expired token",
			setupToken: func(t *testing.T) string {
				cfg := newTestConfig()
				cfg.SessionExpiry = -time.Hour
				svc := NewService(cfg, testFrontendURL, newTestLogger(t), user.NewMemoryRepository(), &mockNotifier{})
				token, err := svc.IssueSession(user.New("Jane", "Doe", "jane@example.com", "h"))
				require.NoError(t, err)
				return token
			},
			wantErr: true,
		},
		{
			name: "garbage token",
			setupToken: func(t *testing.T) string {
				return "invalid.token.here"
			},
			wantErr: true,
		},
		{
			name: "token signed with a different secret",
			setupToken: func(t *testing.T) string {
				cfg := newTestConfig()
				cfg.JWTSecret = "some-other-secret"
				svc := NewService(cfg, testFrontendURL, newTestLogger(t), user.NewMemoryRepository(), &mockNotifier{})
				token, err := svc.IssueSession(user.New("Jane", "Doe", "jane@example.com", "h"))
				require.NoError(t, err)
				return token
			},
			wantErr: true,
		},
		{
			name: "token signed with an unexpected algorithm",
			setupToken: func(t *testing.T) string {
				// Correct secret but HS384; only HS256 is accepted.
				u := user.New("Jane", "Doe", "jane@example.com", "h")
				claims := &Claims{
					Email: u.Email,
					Name:  u.FullName(),
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   u.ID.String(),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).
					SignedString([]byte(newTestConfig().JWTSecret))
				require.NoError(t, err)
				return token
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)

			claims, err := svc.ValidateSession(tt.setupToken(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, claims.Subject)
		})
	}
}

func TestService_HashPassword_NeverStoresPlaintext(t *testing.T) {
	svc, _, _ := newTestService(t)

	hash, err := svc.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.False(t, strings.Contains(hash, "secret123"))
	assert.True(t, svc.CheckPasswordHash("secret123", hash))
	assert.False(t, svc.CheckPasswordHash("other", hash))
}

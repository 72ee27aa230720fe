package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/user"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:     "test-secret-key",
		SessionExpiry: time.Hour,
		CookieName:    "userdesk_session",
		CookieSecure:  false,
	}
}

const testFrontendURL = "http://localhost:5173"

type confirmationCall struct {
	To   string
	Link string
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []confirmationCall
	err   error
}

func (n *mockNotifier) SendConfirmation(_ context.Context, toEmail, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, confirmationCall{To: toEmail, Link: link})
	return n.err
}

func (n *mockNotifier) sent() []confirmationCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]confirmationCall(nil), n.calls...)
}

func newTestService(t *testing.T) (*Service, user.Repository, *mockNotifier) {
	repo := user.NewMemoryRepository()
	notifier := &mockNotifier{}
	svc := NewService(newTestConfig(), testFrontendURL, newTestLogger(t), repo, notifier)
	return svc, repo, notifier
}

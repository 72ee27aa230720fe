package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestService(t *testing.T) (*Service, Repository) {
	repo := NewMemoryRepository()
	return NewService(newTestLogger(t), repo), repo
}

package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the bulk administration actions. Every action
// resolves each id independently and silently skips ids that no longer
// resolve to an account, so a stale admin selection never fails the whole
// batch. Each action commits as one transaction: either every resolved
// account is updated or none are.
type Service struct {
	log        *zap.Logger
	repository Repository
}

func NewService(log *zap.Logger, repo Repository) *Service {
	return &Service{
		log:        log,
		repository: repo,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repository.ListAll(ctx)
}

// BlockAll sets every resolvable account to Blocked.
func (s *Service) BlockAll(ctx context.Context, ids []uuid.UUID) error {
	return s.mutateAll(ctx, ids, (*User).Block)
}

// UnblockAll sets every resolvable account to Active.
func (s *Service) UnblockAll(ctx context.Context, ids []uuid.UUID) error {
	return s.mutateAll(ctx, ids, (*User).Unblock)
}

func (s *Service) mutateAll(ctx context.Context, ids []uuid.UUID, mutate func(*User)) error {
	return s.repository.Transaction(ctx, func(repo Repository) error {
		for _, id := range ids {
			u, err := repo.FindByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			mutate(u)
			if err := repo.Update(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll permanently removes every resolvable account. Hard delete,
// no tombstone.
func (s *Service) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	return s.deleteMatching(ctx, ids, func(*User) bool { return true })
}

// DeleteUnverified removes only the accounts that are still Unverified at
// the time of deletion. Ids resolving to Active or Blocked accounts are
// left untouched, so a verified account cannot be deleted through this
// action even if it was included in the selection.
func (s *Service) DeleteUnverified(ctx context.Context, ids []uuid.UUID) error {
	return s.deleteMatching(ctx, ids, func(u *User) bool { return u.Status == StatusUnverified })
}

func (s *Service) deleteMatching(ctx context.Context, ids []uuid.UUID, match func(*User) bool) error {
	return s.repository.Transaction(ctx, func(repo Repository) error {
		var toDelete []uuid.UUID
		for _, id := range ids {
			u, err := repo.FindByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			if match(u) {
				toDelete = append(toDelete, u.ID)
			}
		}

		if len(toDelete) == 0 {
			return nil
		}

		s.log.Info("deleting users", zap.Int("count", len(toDelete)))
		return repo.DeleteMany(ctx, toDelete)
	})
}

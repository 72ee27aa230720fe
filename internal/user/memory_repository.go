package user

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memoryRepository is an in-memory Repository used by the test suites.
// It mirrors the store contract: email uniqueness on Create, copies on
// read so callers mutate nothing until Update, last-login ordering in
// ListAll, and rollback of everything written through a Transaction
// whose fn returns an error.
type memoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]User
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID: make(map[uuid.UUID]User),
	}
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) FindByConfirmationToken(_ context.Context, token string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.EmailConfirmationToken != nil && *u.EmailConfirmationToken == token {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) ListAll(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}

	// Most recent login first, never-logged-in last.
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i].LastLoginTime, users[j].LastLoginTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return users, nil
}

func (r *memoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	r.byID[user.ID] = *user
	return nil
}

func (r *memoryRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return ErrNotFound
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *memoryRepository) DeleteMany(_ context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		delete(r.byID, id)
	}
	return nil
}

func (r *memoryRepository) Transaction(_ context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[uuid.UUID]User, len(r.byID))
	for id, u := range r.byID {
		snapshot[id] = u
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.byID = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

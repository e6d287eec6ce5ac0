package repository

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openshelf/circulate/internal/domain"
)

// UserRepository is an in-memory registry of member accounts keyed by ID.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	logger *slog.Logger
}

// NewUserRepository creates an empty user repository.
func NewUserRepository(logger *slog.Logger) *UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserRepository{
		users:  make(map[string]*domain.User),
		logger: logger,
	}
}

// Save stores a user. Re-registering an existing ID is an error.
func (r *UserRepository) Save(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("user %q already registered: %w", user.ID, domain.ErrInvalidOperation)
	}
	r.users[user.ID] = user

	r.logger.Debug("user saved", slog.String("user_id", user.ID), slog.String("name", user.Name))
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %q not found: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

// Exists reports whether a user with the given ID is registered.
func (r *UserRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok
}

// Delete removes a user account.
func (r *UserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %q not found: %w", id, domain.ErrNotFound)
	}
	delete(r.users, id)

	r.logger.Debug("user deleted", slog.String("user_id", id))
	return nil
}

// List returns all users ordered by ID.
func (r *UserRepository) List() []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

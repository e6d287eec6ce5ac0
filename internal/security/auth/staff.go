package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Staff is a desk operator account. Members of the library never log in;
// the API surface is driven by staff.
type Staff struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
}

// StaffStore holds desk accounts in memory with bcrypt password hashes.
type StaffStore struct {
	mu    sync.RWMutex
	staff map[string]*Staff // email -> account
}

// NewStaffStore creates an empty staff store.
func NewStaffStore() *StaffStore {
	return &StaffStore{staff: make(map[string]*Staff)}
}

// Add registers a desk account with a hashed password.
func (st *StaffStore) Add(email, password, role, id string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.staff[email]; exists {
		return fmt.Errorf("staff account %q already exists", email)
	}
	st.staff[email] = &Staff{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	return nil
}

// Authenticate verifies credentials and returns the account.
func (st *StaffStore) Authenticate(email, password string) (*Staff, error) {
	st.mu.RLock()
	account, exists := st.staff[email]
	st.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("staff account not found")
	}
	if !account.Active {
		return nil, fmt.Errorf("staff account inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid password")
	}
	return account, nil
}

// Get retrieves an account by email.
func (st *StaffStore) Get(email string) (*Staff, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	account, exists := st.staff[email]
	if !exists {
		return nil, fmt.Errorf("staff account not found")
	}
	return account, nil
}

// Deactivate disables an account without removing it.
func (st *StaffStore) Deactivate(email string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	account, exists := st.staff[email]
	if !exists {
		return fmt.Errorf("staff account not found")
	}
	account.Active = false
	return nil
}

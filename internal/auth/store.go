package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/fooddelivery/gateway/internal/util"
)

// Credential is one username/password/role tuple held by the store.
type Credential struct {
	ID       int
	Username string
	Password string
	Email    string
	Role     string
}

// storedCredential is a credential with its password hashed.
type storedCredential struct {
	id       int
	username string
	email    string
	role     string
	hash     []byte
}

// Store is an in-memory credential store, a stand-in for an external
// identity provider. The seed set is fixed at construction; Register
// validates input but never persists.
type Store struct {
	credentials []storedCredential
}

// DefaultCredentials returns the demo credential seed set.
func DefaultCredentials() []Credential {
	return []Credential{
		{ID: 1, Username: "admin", Password: "admin123", Email: "admin@fooddelivery.com", Role: RoleAdmin},
		{ID: 2, Username: "user", Password: "user123", Email: "user@fooddelivery.com", Role: RoleUser},
	}
}

// NewStore creates a credential store from the given seed set. Passwords are
// bcrypt-hashed at construction and the plaintext is discarded.
func NewStore(seed []Credential) (*Store, error) {
	credentials := make([]storedCredential, 0, len(seed))
	for _, c := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", c.Username, err)
		}
		credentials = append(credentials, storedCredential{
			id:       c.ID,
			username: c.Username,
			email:    c.Email,
			role:     c.Role,
			hash:     hash,
		})
	}
	return &Store{credentials: credentials}, nil
}

// Authenticate looks up a credential by username or email (first match wins)
// and verifies the password. It returns util.ErrInvalidCredentials on any
// failure, without revealing whether the identifier or the password was
// wrong.
func (s *Store) Authenticate(identifier, password string) (Identity, error) {
	for _, c := range s.credentials {
		if c.username != identifier && c.email != identifier {
			continue
		}
		if err := bcrypt.CompareHashAndPassword(c.hash, []byte(password)); err != nil {
			return Identity{}, util.ErrInvalidCredentials
		}
		return Identity{
			ID:       c.id,
			Username: c.username,
			Email:    c.email,
			Role:     c.role,
		}, nil
	}
	return Identity{}, util.ErrInvalidCredentials
}

// Register validates a registration request. It rejects duplicate usernames
// but deliberately does not persist the new credential; the store is a fixed
// seed set.
func (s *Store) Register(username, password, email string) error {
	if username == "" || password == "" || email == "" {
		verr := util.NewValidationError("username, password, and email are required")
		if username == "" {
			verr.AddField("username", "required")
		}
		if password == "" {
			verr.AddField("password", "required")
		}
		if email == "" {
			verr.AddField("email", "required")
		}
		return verr
	}

	for _, c := range s.credentials {
		if c.username == username {
			verr := util.NewValidationError("username already exists")
			verr.AddField("username", "already exists")
			return verr
		}
	}

	return nil
}

// Len returns the number of stored credentials.
func (s *Store) Len() int {
	return len(s.credentials)
}

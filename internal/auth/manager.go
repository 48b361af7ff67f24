package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// User is a registered account. PasswordHash never leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity strips the credential material from a user
func (u User) Identity() api.Identity {
	return api.Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// userFile is the on-disk shape of the user store
type userFile struct {
	Users []User `json:"users"`
}

// session is one issued token
type session struct {
	userID    string
	expiresAt time.Time
}

// Manager owns user accounts and session tokens. Users persist in a single
// JSON document rewritten whole on every mutation; tokens are opaque,
// in-memory and lost on restart.
type Manager struct {
	usersPath string
	tokenTTL  time.Duration
	logger    *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]session
}

// NewManager creates an auth manager backed by the user document at
// usersPath. When the document does not exist it is created with a
// bootstrap administrator account.
func NewManager(usersPath string, tokenTTL time.Duration, adminEmail, adminPassword string, logger *logrus.Logger) (*Manager, error) {
	m := &Manager{
		usersPath: usersPath,
		tokenTTL:  tokenTTL,
		logger:    logger,
		sessions:  make(map[string]session),
	}

	if _, err := os.Stat(usersPath); os.IsNotExist(err) {
		hash, err := hashPassword(adminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash bootstrap password: %w", err)
		}
		admin := User{
			ID:           "admin1",
			Email:        adminEmail,
			PasswordHash: hash,
			Name:         "Admin",
			Role:         api.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}
		if err := m.save(userFile{Users: []User{admin}}); err != nil {
			return nil, fmt.Errorf("failed to bootstrap user store: %w", err)
		}
		logger.WithField("email", adminEmail).Info("Bootstrapped administrator account")
	}

	return m, nil
}

// Register creates a new user account with the default role
func (m *Manager) Register(email, password, name string) (api.Identity, error) {
	if email == "" || password == "" {
		return api.Identity{}, fmt.Errorf("%w: email and password required", api.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.load()
	if err != nil {
		return api.Identity{}, err
	}

	for _, u := range data.Users {
		if u.Email == email {
			return api.Identity{}, fmt.Errorf("%w: user already exists", api.ErrValidation)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return api.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         api.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	data.Users = append(data.Users, user)
	if err := m.save(data); err != nil {
		return api.Identity{}, err
	}

	m.logger.WithField("email", email).Info("User registered")
	return user.Identity(), nil
}

// Login verifies the credentials and returns the caller identity
func (m *Manager) Login(email, password string) (api.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := m.load()
	if err != nil {
		return api.Identity{}, err
	}

	for _, u := range data.Users {
		if u.Email != email {
			continue
		}
		if !verifyPassword(password, u.PasswordHash) {
			return api.Identity{}, fmt.Errorf("%w: invalid password", api.ErrUnauthorized)
		}
		return u.Identity(), nil
	}

	return api.Identity{}, fmt.Errorf("%w: user not found", api.ErrUnauthorized)
}

// IssueToken creates an opaque session token for a user
func (m *Manager) IssueToken(userID string) string {
	token := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = session{
		userID:    userID,
		expiresAt: time.Now().Add(m.tokenTTL),
	}
	return token
}

// ValidateToken resolves a token to the identity it was issued for
func (m *Manager) ValidateToken(token string) (api.Identity, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return api.Identity{}, errors.New("invalid token")
	}
	if time.Now().After(sess.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return api.Identity{}, errors.New("expired token")
	}

	user, err := m.GetUser(sess.userID)
	if err != nil {
		return api.Identity{}, err
	}
	return user.Identity(), nil
}

// Logout invalidates a token
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// GetUser returns a user by identifier
func (m *Manager) GetUser(userID string) (User, error) {
	data, err := m.load()
	if err != nil {
		return User{}, err
	}

	for _, u := range data.Users {
		if u.ID == userID {
			return u, nil
		}
	}
	return User{}, errors.New("user not found")
}

// LookupOwner returns the public owner details of a user, if known
func (m *Manager) LookupOwner(userID string) *api.Owner {
	user, err := m.GetUser(userID)
	if err != nil {
		return nil
	}
	return &api.Owner{Email: user.Email, Name: user.Name}
}

func (m *Manager) load() (userFile, error) {
	raw, err := os.ReadFile(m.usersPath)
	if err != nil {
		return userFile{}, fmt.Errorf("failed to read user store: %w", err)
	}

	var data userFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return userFile{}, fmt.Errorf("failed to parse user store: %w", err)
	}
	return data, nil
}

func (m *Manager) save(data userFile) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	if err := os.WriteFile(m.usersPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write user store: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

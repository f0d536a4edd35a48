package profile

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrExists             = errors.New("profile already exists")
	ErrNotFound           = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Profile is a stored user record. PasswordHash is a SHA-256 hex digest;
// it is never returned over the API.
type Profile struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// Manager stores user profiles in Redis under "profile:<username>".
type Manager struct {
	client *redis.Client
}

func NewManager(addr, password string, db int) *Manager {
	return &Manager{client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// NewManagerWithClient wraps an existing client (used by tests).
func NewManagerWithClient(c *redis.Client) *Manager { return &Manager{client: c} }

func userKey(username string) string { return "profile:" + username }

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

// Create stores a new profile. It fails with ErrExists for a taken username.
func (m *Manager) Create(ctx context.Context, username, password, displayName string) error {
	now := time.Now().UTC()
	p := Profile{
		Username:     username,
		PasswordHash: hashPassword(password),
		DisplayName:  displayName,
		CreatedAt:    now,
		LastLogin:    now,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ok, err := m.client.SetNX(ctx, userKey(username), b, 0).Result()
	if err != nil {
		return fmt.Errorf("create profile %s: %w", username, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// Verify checks username/password. A missing user and a wrong password are
// indistinguishable to the caller.
func (m *Manager) Verify(ctx context.Context, username, password string) error {
	p, err := m.Get(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	want := []byte(p.PasswordHash)
	got := []byte(hashPassword(password))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Get loads a profile by username.
func (m *Manager) Get(ctx context.Context, username string) (Profile, error) {
	raw, err := m.client.Get(ctx, userKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", username, err)
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile %s: %w", username, err)
	}
	return p, nil
}

// TouchLogin updates the profile's last login time to now.
func (m *Manager) TouchLogin(ctx context.Context, username string) error {
	p, err := m.Get(ctx, username)
	if err != nil {
		return err
	}
	p.LastLogin = time.Now().UTC()
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, userKey(username), b, 0).Err(); err != nil {
		return fmt.Errorf("touch login %s: %w", username, err)
	}
	return nil
}

func (m *Manager) Close() error { return m.client.Close() }

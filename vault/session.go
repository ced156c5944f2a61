package vault

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/farcaster-ops/opkit/apperr"
)

// sessionSecretLen is the HMAC signing secret size for SessionManager
// tokens — 32 bytes is ample for HS256.
const sessionSecretLen = 32

// NewEphemeralSecret generates a random signing secret for a
// SessionManager that lives only as long as the current process.
func NewEphemeralSecret() ([]byte, *apperr.Error) {
	secret := make([]byte, sessionSecretLen)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, apperr.Wrap(apperr.Transport, err)
	}
	return secret, nil
}

// ErrSessionRevoked is returned when a session token's ID is no longer
// registered in the store, whether because it was explicitly revoked or
// because the process restarted and the in-memory store came back
// empty.
var ErrSessionRevoked = errors.New("session revoked or unknown")

// SessionClaims is the JWT payload for a vault unlock session: the vault
// path it was issued for, and the custody address it decrypted, so a
// caller can skip re-prompting for a password within the TTL without
// re-reading the encrypted key material from disk.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID   string `json:"sid"`
	VaultPath   string `json:"vault_path"`
	Address     string `json:"address"`
}

// sessionRegistry tracks which session IDs are still live, so a signed-
// but-revoked token (one passed to Revoke) is rejected even before
// its natural expiry.
type sessionRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{active: make(map[string]struct{})}
}

func (r *sessionRegistry) register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[id] = struct{}{}
}

func (r *sessionRegistry) revoke(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *sessionRegistry) isActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// SessionManager issues and validates short-lived unlock sessions. The
// signing secret is held only in memory for the process lifetime, so a
// token validates only inside the process that issued it — sessions
// never survive a restart or carry over to a separate CLI invocation,
// matching the vault's "always re-derive from disk" trust model.
type SessionManager struct {
	secret   []byte
	ttl      time.Duration
	registry *sessionRegistry
}

// NewSessionManager creates a SessionManager whose tokens live for ttl.
// secret should be process-random (see NewEphemeralSecret); it is never
// written to disk.
func NewSessionManager(secret []byte, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: secret, ttl: ttl, registry: newSessionRegistry()}
}

// IssueSession signs a new session token scoped to vaultPath/address and
// registers it as active.
func (m *SessionManager) IssueSession(vaultPath, address string) (string, error) {
	sessionID := uuid.New().String()
	now := time.Now()

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		SessionID: sessionID,
		VaultPath: vaultPath,
		Address:   address,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	m.registry.register(sessionID)
	return signed, nil
}

// ValidateSession parses and verifies tokenString, rejecting it if its
// signature, expiry, or revocation status don't check out.
func (m *SessionManager) ValidateSession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session claims")
	}
	if !m.registry.isActive(claims.SessionID) {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// Revoke ends a session immediately, independent of its signed expiry.
func (m *SessionManager) Revoke(claims *SessionClaims) {
	m.registry.revoke(claims.SessionID)
}

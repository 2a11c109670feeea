package token

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpired reports a structurally valid token whose lifetime has elapsed.
// Callers use it to distinguish "needs refresh" from outright rejection.
var ErrExpired = errors.New("token expired")

// ErrInvalid reports a token that failed signature or claims validation for
// any reason other than expiry.
var ErrInvalid = errors.New("token invalid")

// Config carries the key material and lifetimes for the three token kinds.
// Access and refresh tokens are signed with the Ed25519 private key and
// verified with the public key, so verification can be delegated to
// services that hold only the public half. The MFA challenge token uses a
// separate symmetric secret and a much shorter lifetime: it proves only
// knowledge of a correct password and must not be honorable as a general
// bearer token.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	MFATTL     time.Duration

	PrivateKey []byte
	PublicKey  []byte
	MFASecret  []byte

	Issuer string
	Leeway time.Duration
}

// Manager signs and verifies access, refresh, and MFA challenge tokens.
// Manager is immutable after NewManager and safe for concurrent use.
type Manager struct {
	config  Config
	signKey ed25519.PrivateKey
	pubKey  ed25519.PublicKey
}

// Token type discriminators carried in the "typ" claim. Access and refresh
// tokens share the same signing key, so the claim is what keeps a 1-hour
// access token from being presented where 7-day refresh power is granted.
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
	typeMFA     = "mfa"
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	TokenType   string `json:"typ"`
	UserID      string `json:"uid"`
	SessionID   string `json:"sid"`
	WorkspaceID string `json:"wid,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. It carries only the
// session identifier; the user is resolved from the session record when a
// new access token is minted.
type RefreshClaims struct {
	TokenType   string `json:"typ"`
	SessionID   string `json:"sid"`
	WorkspaceID string `json:"wid,omitempty"`
	jwt.RegisteredClaims
}

// MFAClaims is the payload of an MFA challenge token.
type MFAClaims struct {
	TokenType string `json:"typ"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready Manager. The private key may
// be omitted for verify-only deployments; signing then fails.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.MFATTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.MFASecret) < 32 {
		return nil, errors.New("mfa secret must be at least 32 bytes")
	}
	if len(cfg.PublicKey) == 0 {
		return nil, errors.New("ed25519 public key required")
	}

	m := &Manager{config: cfg}

	var err error
	if len(cfg.PrivateKey) > 0 {
		if m.signKey, err = parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
	}
	if m.pubKey, err = parseEdPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return m, nil
}

// SignAccess issues an access token bound to the given user and session.
// workspaceID may be empty; the claim is omitted when it is.
func (m *Manager) SignAccess(userID, sessionID, workspaceID string) (string, error) {
	claims := AccessClaims{
		TokenType:        typeAccess,
		UserID:           userID,
		SessionID:        sessionID,
		WorkspaceID:      workspaceID,
		RegisteredClaims: m.registered(m.config.AccessTTL),
	}
	return m.signEd(claims)
}

// SignRefresh issues a refresh token bound to the given session.
func (m *Manager) SignRefresh(sessionID, workspaceID string) (string, error) {
	claims := RefreshClaims{
		TokenType:        typeRefresh,
		SessionID:        sessionID,
		WorkspaceID:      workspaceID,
		RegisteredClaims: m.registered(m.config.RefreshTTL),
	}
	return m.signEd(claims)
}

// SignMFA issues an MFA challenge token for the given user.
func (m *Manager) SignMFA(userID string) (string, error) {
	claims := MFAClaims{
		TokenType:        typeMFA,
		UserID:           userID,
		RegisteredClaims: m.registered(m.config.MFATTL),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.config.MFASecret)
}

// ParseAccess verifies an access token. It returns ErrExpired for a token
// that failed only on lifetime, ErrInvalid for every other failure.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parseEd(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeAccess {
		return nil, ErrInvalid
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token with the same tri-state contract as
// ParseAccess.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parseEd(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != typeRefresh {
		return nil, ErrInvalid
	}
	return claims, nil
}

// ParseMFA verifies an MFA challenge token against the symmetric secret.
func (m *Manager) ParseMFA(tokenStr string) (*MFAClaims, error) {
	claims := &MFAClaims{}
	parser := m.parser(jwt.SigningMethodHS256.Alg())
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.config.MFASecret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.TokenType != typeMFA {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (m *Manager) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	rc := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	if m.config.Issuer != "" {
		rc.Issuer = m.config.Issuer
	}
	return rc
}

func (m *Manager) signEd(claims jwt.Claims) (string, error) {
	if m.signKey == nil {
		return "", errors.New("signing key not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(m.signKey)
}

func (m *Manager) parseEd(tokenStr string, claims jwt.Claims) error {
	parser := m.parser(jwt.SigningMethodEdDSA.Alg())
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.pubKey, nil
	})
	if err != nil {
		return classify(err)
	}
	if !tok.Valid {
		return ErrInvalid
	}
	return nil
}

func (m *Manager) parser(alg string) *jwt.Parser {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	return jwt.NewParser(options...)
}

// classify folds golang-jwt errors into the two sentinels. Expiry wins only
// when it is the sole validation failure golang-jwt reports.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpired
	}
	return ErrInvalid
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

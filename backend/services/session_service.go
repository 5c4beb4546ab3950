package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/config"
	"github.com/disgoorg/entry-bot/backend/models"
	"github.com/disgoorg/entry-bot/entrybot/clock"
)

const (
	SessionCookieName  = "entry_session"
	StateCookieName    = "oauth_state"
	LocationCookieName = "entry_loc"

	stateTTL    = 10 * time.Minute
	locationTTL = 24 * time.Hour
)

var (
	ErrNoSession       = errors.New("no session cookie found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSigned   = errors.New("signature verification failed")
	ErrNoSessionKey    = errors.New("session key not configured")
	ErrStateMismatched = errors.New("oauth state mismatch")
)

// SessionService keeps the login, the pending OAuth state and the last
// scanned venue code in HMAC signed cookies.
type SessionService struct {
	config *config.WebAppConfig
	clock  clock.Clock
}

func NewSessionService(cfg *config.WebAppConfig, c clock.Clock) *SessionService {
	return &SessionService{
		config: cfg,
		clock:  c,
	}
}

// CreateSession stamps the login time, applies the session TTL and sets the
// session cookie.
func (s *SessionService) CreateSession(c *fiber.Ctx, userSession *models.UserSession) error {
	now := s.clock.Now()
	ttl := s.config.SessionTTL()
	userSession.LoginAt = now
	userSession.ExpiresAt = now.Add(ttl)

	sessionData, err := json.Marshal(userSession)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	signedSession, err := s.signData(sessionData)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	s.setCookie(c, SessionCookieName, signedSession, ttl)

	slog.Info("Session created for user",
		slog.String("type", "web"),
		slog.String("user_id", userSession.UserID.String()),
		slog.String("username", userSession.Username),
		slog.Duration("ttl", ttl))

	return nil
}

// GetSession retrieves and validates the user session from the request. An
// expired session cookie is cleared.
func (s *SessionService) GetSession(c *fiber.Ctx) (*models.UserSession, error) {
	sessionCookie := c.Cookies(SessionCookieName)
	if sessionCookie == "" {
		return nil, ErrNoSession
	}

	sessionData, err := s.verifyAndDecodeData(sessionCookie)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	var userSession models.UserSession
	if err := json.Unmarshal(sessionData, &userSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if userSession.Expired(s.clock.Now()) {
		s.DestroySession(c)
		return nil, ErrSessionExpired
	}

	return &userSession, nil
}

func (s *SessionService) DestroySession(c *fiber.Ctx) {
	s.clearCookie(c, SessionCookieName)
}

// SetState stores the OAuth state nonce together with the venue code the
// login was started from.
func (s *SessionService) SetState(c *fiber.Ctx, state, loc string) error {
	signedState, err := s.signData([]byte(state + "|" + loc))
	if err != nil {
		return fmt.Errorf("failed to sign state: %w", err)
	}
	s.setCookie(c, StateCookieName, signedState, stateTTL)
	return nil
}

// GetAndClearState checks the returned state against the cookie and returns
// the venue code stored with it.
func (s *SessionService) GetAndClearState(c *fiber.Ctx, received string) (string, error) {
	stateCookie := c.Cookies(StateCookieName)
	if stateCookie == "" {
		return "", errors.New("no state cookie found")
	}
	s.clearCookie(c, StateCookieName)

	stateData, err := s.verifyAndDecodeData(stateCookie)
	if err != nil {
		return "", fmt.Errorf("invalid state: %w", err)
	}

	state, loc, _ := strings.Cut(string(stateData), "|")
	if received == "" || !hmac.Equal([]byte(state), []byte(received)) {
		return loc, ErrStateMismatched
	}
	return loc, nil
}

// SetLocation remembers the venue code from the scanned QR link.
func (s *SessionService) SetLocation(c *fiber.Ctx, loc string) error {
	signed, err := s.signData([]byte(loc))
	if err != nil {
		return err
	}
	s.setCookie(c, LocationCookieName, signed, locationTTL)
	return nil
}

// Location returns the remembered venue code, or "" when there is none.
func (s *SessionService) Location(c *fiber.Ctx) string {
	raw := c.Cookies(LocationCookieName)
	if raw == "" {
		return ""
	}
	data, err := s.verifyAndDecodeData(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *SessionService) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Secure:   s.config.SecureCookies(),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (s *SessionService) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.config.SecureCookies(),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// signData signs data using HMAC-SHA256
func (s *SessionService) signData(data []byte) (string, error) {
	key := s.config.SessionKey()
	if key == "" {
		return "", ErrNoSessionKey
	}

	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	signature := h.Sum(nil)

	combined := append(append([]byte{}, data...), signature...)
	return base64.URLEncoding.EncodeToString(combined), nil
}

// verifyAndDecodeData verifies the signature and returns the original data
func (s *SessionService) verifyAndDecodeData(encodedData string) ([]byte, error) {
	key := s.config.SessionKey()
	if key == "" {
		return nil, ErrNoSessionKey
	}

	combined, err := base64.URLEncoding.DecodeString(encodedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	// signature is the last 32 bytes
	if len(combined) < sha256.Size {
		return nil, errors.New("invalid data length")
	}

	data := combined[:len(combined)-sha256.Size]
	receivedSignature := combined[len(combined)-sha256.Size:]

	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	if !hmac.Equal(receivedSignature, h.Sum(nil)) {
		return nil, ErrInvalidSigned
	}

	return data, nil
}

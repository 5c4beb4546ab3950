package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/backend/config"
	"github.com/disgoorg/entry-bot/backend/models"
	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/clock"
)

func newSessionService(key string) (*SessionService, *clock.Manual) {
	c := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, clock.KST))
	cfg := config.NewWebAppConfig(&entrybot.Config{Web: entrybot.WebConfig{
		SessionKey: key,
		SessionTTL: entrybot.Duration{Duration: time.Minute},
	}}, true)
	return NewSessionService(cfg, c), c
}

func TestSignRoundTrip(t *testing.T) {
	s, _ := newSessionService("0123456789abcdef")

	signed, err := s.signData([]byte("07"))
	require.NoError(t, err)

	data, err := s.verifyAndDecodeData(signed)
	require.NoError(t, err)
	assert.Equal(t, "07", string(data))

	other, _ := newSessionService("fedcba9876543210")
	_, err = other.verifyAndDecodeData(signed)
	assert.ErrorIs(t, err, ErrInvalidSigned)

	_, err = s.verifyAndDecodeData("c2hvcnQ=")
	assert.Error(t, err)
}

func TestSignRequiresKey(t *testing.T) {
	s, _ := newSessionService("")
	_, err := s.signData([]byte("x"))
	assert.ErrorIs(t, err, ErrNoSessionKey)
}

// roundTrip runs set on one request and get on a second request carrying the
// cookies the first one produced.
func roundTrip(t *testing.T, set, get fiber.Handler) *http.Response {
	t.Helper()
	app := fiber.New()
	app.Get("/set", set)
	app.Get("/get", get)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	for _, c := range resp.Cookies() {
		if c.Value != "" {
			req.AddCookie(c)
		}
	}
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSessionLifecycle(t *testing.T) {
	s, c := newSessionService("0123456789abcdef")

	var got *models.UserSession
	var getErr error
	set := func(ctx *fiber.Ctx) error {
		return s.CreateSession(ctx, &models.UserSession{UserID: 5, Username: "alice"})
	}
	get := func(ctx *fiber.Ctx) error {
		got, getErr = s.GetSession(ctx)
		return nil
	}

	roundTrip(t, set, get)
	require.NoError(t, getErr)
	assert.EqualValues(t, 5, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(got.LoginAt.Add(time.Minute)))

	roundTrip(t, set, func(ctx *fiber.Ctx) error {
		c.Advance(time.Minute + time.Second)
		got, getErr = s.GetSession(ctx)
		return nil
	})
	assert.ErrorIs(t, getErr, ErrSessionExpired)
	assert.Nil(t, got)
}

func TestStateCarriesLocation(t *testing.T) {
	s, _ := newSessionService("0123456789abcdef")
	set := func(ctx *fiber.Ctx) error { return s.SetState(ctx, "nonce", "07") }

	var loc string
	var err error
	roundTrip(t, set, func(ctx *fiber.Ctx) error {
		loc, err = s.GetAndClearState(ctx, "nonce")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "07", loc)

	roundTrip(t, set, func(ctx *fiber.Ctx) error {
		loc, err = s.GetAndClearState(ctx, "other")
		return nil
	})
	assert.ErrorIs(t, err, ErrStateMismatched)
	assert.Equal(t, "07", loc)
}

func TestLocationCookie(t *testing.T) {
	s, _ := newSessionService("0123456789abcdef")

	var loc string
	roundTrip(t,
		func(ctx *fiber.Ctx) error { return s.SetLocation(ctx, "42") },
		func(ctx *fiber.Ctx) error { loc = s.Location(ctx); return nil },
	)
	assert.Equal(t, "42", loc)
}

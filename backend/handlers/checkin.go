package handlers

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/disgoorg/entry-bot/backend/models"
	webservices "github.com/disgoorg/entry-bot/backend/services"
	"github.com/disgoorg/entry-bot/backend/utils"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

const maxCodeLength = 16

// IndexPage is the data of the check-in page.
type IndexPage struct {
	Loc                string
	StoreName          string
	StoreExists        bool
	RequiresPassphrase bool
	LoggedIn           bool
	User               *webmodels.UserSession
	LoginURL           string
	Error              string
}

func homeURL(loc string) string {
	if loc == "" {
		return "/"
	}
	return "/?loc=" + url.QueryEscape(loc)
}

// Index renders the check-in page for the scanned venue code. The code is
// remembered so the OAuth round trip can come back to it.
func Index(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := strings.TrimSpace(c.Query("loc"))
		if loc != "" {
			if err := webApp.Sessions.SetLocation(c, loc); err != nil {
				return err
			}
		} else {
			loc = webApp.Sessions.Location(c)
		}

		page := IndexPage{
			Loc:       loc,
			StoreName: "Unregistered venue",
			LoginURL:  "/oauth/login",
		}
		if c.Query("error") == "oauth_failed" {
			page.Error = "Discord login failed. Please try again."
		}

		if loc != "" {
			venue, err := webApp.Venues.Get(c.UserContext(), loc)
			switch {
			case err == nil:
				page.StoreName = venue.Name
				page.StoreExists = true
				page.RequiresPassphrase = venue.RequiresPassphrase()
			case !repositories.IsNotFound(err):
				return err
			}
		}

		if session, ok := utils.ExtractUserSession(c); ok {
			page.LoggedIn = true
			page.User = session
		}

		return utils.RenderPage(c, fiber.StatusOK, "index.html", page)
	}
}

// OAuthLogin starts the Discord login for the remembered venue code.
func OAuthLogin(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := strings.TrimSpace(c.Query("loc"))
		if loc == "" {
			loc = webApp.Sessions.Location(c)
		}

		state, err := webservices.GenerateState()
		if err != nil {
			return err
		}
		if err := webApp.Sessions.SetState(c, state, loc); err != nil {
			return err
		}
		return c.Redirect(webApp.OAuth.AuthURL(state), fiber.StatusFound)
	}
}

// OAuthCallback completes the login and sends the user back to the venue.
func OAuthCallback(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, stateErr := webApp.Sessions.GetAndClearState(c, c.Query("state"))
		if loc == "" {
			loc = webApp.Sessions.Location(c)
		}

		code := c.Query("code")
		if code == "" {
			return c.Redirect(homeURL(loc), fiber.StatusFound)
		}
		failed := homeURL(loc)
		if strings.Contains(failed, "?") {
			failed += "&error=oauth_failed"
		} else {
			failed += "?error=oauth_failed"
		}

		if stateErr != nil {
			slog.Warn("OAuth state rejected",
				slog.String("type", "web"),
				slog.String("error", stateErr.Error()))
			webApp.Sessions.DestroySession(c)
			return c.Redirect(failed, fiber.StatusFound)
		}

		user, err := webApp.OAuth.Exchange(c.UserContext(), code)
		if err != nil {
			slog.Error("OAuth exchange failed",
				slog.String("type", "web"),
				slog.String("error", err.Error()))
			webApp.Sessions.DestroySession(c)
			return c.Redirect(failed, fiber.StatusFound)
		}

		session := &webmodels.UserSession{
			UserID:   user.ID,
			Username: user.Username,
		}
		if user.GlobalName != nil {
			session.GlobalName = *user.GlobalName
		}
		if err := webApp.Sessions.CreateSession(c, session); err != nil {
			return err
		}
		return c.Redirect(homeURL(loc), fiber.StatusFound)
	}
}

func Logout(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		webApp.Sessions.DestroySession(c)
		return c.Redirect(homeURL(webApp.Sessions.Location(c)), fiber.StatusFound)
	}
}

// APICheckin checks the logged in user in to the venue in the body or the
// remembered one.
func APICheckin(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractUserSession(c)
		if !ok {
			return utils.SendJSON(c, fiber.StatusUnauthorized, webmodels.CheckinResponse{Message: "Please log in first."})
		}

		var body webmodels.CheckinRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return utils.SendJSON(c, fiber.StatusBadRequest, webmodels.CheckinResponse{Message: "Invalid request body."})
			}
		}

		loc := strings.TrimSpace(body.Loc)
		if loc == "" {
			loc = webApp.Sessions.Location(c)
		}
		if loc == "" {
			return utils.SendJSON(c, fiber.StatusBadRequest, webmodels.CheckinResponse{Message: "No venue code."})
		}

		result, err := webApp.Checkin.CheckIn(c.UserContext(), services.CheckinRequest{
			Code:       loc,
			UserID:     session.UserID,
			Passphrase: strings.TrimSpace(body.Passphrase),
			Source:     services.SourceWeb,
		})
		if err != nil {
			return err
		}

		status, resp := CheckinResponse(result)
		return utils.SendJSON(c, status, resp)
	}
}

// CheckinResponse maps a check-in outcome to its HTTP status and body.
func CheckinResponse(r *services.CheckinResult) (int, webmodels.CheckinResponse) {
	resp := webmodels.CheckinResponse{
		Success: r.Outcome.Success(),
		Message: r.Message(),
	}
	switch r.Outcome {
	case services.OutcomeCheckedIn:
		resp.VisitCount = r.VisitCount
		resp.RoleGranted = r.RoleGranted
		resp.Nickname = r.Nickname
		return fiber.StatusOK, resp
	case services.OutcomeAlreadyCheckedIn:
		resp.AlreadyCheckedIn = true
		return fiber.StatusOK, resp
	case services.OutcomeVenueNotFound:
		return fiber.StatusNotFound, resp
	case services.OutcomePassphraseRequired:
		resp.NeedPassphrase = true
		return fiber.StatusBadRequest, resp
	case services.OutcomeRoleTooLow:
		resp.UserRoles = r.RoleNames
		return fiber.StatusForbidden, resp
	}
	return fiber.StatusForbidden, resp
}

// QRImage serves the PNG QR code pointing at the venue's check-in page.
func QRImage(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, err := url.PathUnescape(c.Params("code"))
		if err != nil || code == "" || len(code) > maxCodeLength {
			return fiber.NewError(fiber.StatusBadRequest, "invalid venue code")
		}

		png, err := webApp.QR.PNG(code)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.Send(png)
	}
}

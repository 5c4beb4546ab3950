package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/middleware"
	webmodels "github.com/disgoorg/entry-bot/backend/models"
	"github.com/disgoorg/entry-bot/backend/utils"
	dbmodels "github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

// DashboardPage is the data of the dashboard template.
type DashboardPage struct {
	Token  string
	User   *dbmodels.AccessToken
	Stores []dbmodels.VenueSummary
}

func Dashboard(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := middleware.ExtractAccessToken(c)
		stores, err := webApp.Stats.VenueSummaries(c.UserContext())
		if err != nil {
			return err
		}
		return utils.RenderPage(c, fiber.StatusOK, "dashboard.html", DashboardPage{
			Token:  c.Query("token"),
			User:   token,
			Stores: stores,
		})
	}
}

// storeCode returns the optional store_code filter, answering 404 itself
// when it names an unknown venue.
func storeCode(c *fiber.Ctx, webApp *WebApp) (*string, error) {
	code := strings.TrimSpace(c.Query("store_code"))
	if code == "" {
		return nil, nil
	}
	if _, err := webApp.Venues.Get(c.UserContext(), code); err != nil {
		if repositories.IsNotFound(err) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Venue not found.")
		}
		return nil, err
	}
	return &code, nil
}

func APIStores(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stores, err := webApp.Stats.VenueSummaries(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(webmodels.StoresResponse{Stores: stores})
	}
}

func APIVisits(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, err := storeCode(c, webApp)
		if err != nil {
			return err
		}
		rows, err := webApp.Exports.Rows(c.UserContext(), code)
		if err != nil {
			return err
		}

		visits := make([]webmodels.VisitRow, 0, len(rows))
		for _, r := range rows {
			visits = append(visits, webmodels.VisitRow{
				StoreName: r.VenueName,
				Username:  r.Username,
				Nickname:  r.Nickname,
				VisitDate: r.VisitDate.String(),
				VisitTime: r.VisitTime,
			})
		}
		return c.JSON(webmodels.VisitsResponse{Visits: visits})
	}
}

func APIDailyStats(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, err := storeCode(c, webApp)
		if err != nil {
			return err
		}
		days := c.QueryInt("days", services.DefaultStatsDays)
		if days <= 0 || days > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 366.")
		}

		stats, err := webApp.Stats.DailyStats(c.UserContext(), code, days)
		if err != nil {
			return err
		}
		return c.JSON(webmodels.StatsResponse[dbmodels.DailyCount]{Stats: stats})
	}
}

func APIVisitorStats(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, err := storeCode(c, webApp)
		if err != nil {
			return err
		}

		var stats []dbmodels.VisitorStat
		if code != nil {
			stats, err = webApp.Stats.VenueStats(c.UserContext(), *code, nil, nil)
		} else {
			stats, err = webApp.Stats.CrossVenueVisitorStats(c.UserContext())
		}
		if err != nil {
			return err
		}
		if stats == nil {
			stats = []dbmodels.VisitorStat{}
		}
		return c.JSON(webmodels.StatsResponse[dbmodels.VisitorStat]{Stats: stats})
	}
}

// APIExport streams the visit export in the format named by the path.
func APIExport(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := services.ParseExportFormat(c.Params("format"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		code, err := storeCode(c, webApp)
		if err != nil {
			return err
		}

		file, err := webApp.Exports.Export(c.UserContext(), format, code)
		if err != nil {
			return err
		}
		return utils.SendAttachment(c, file.Name, file.ContentType, file.Data)
	}
}

// path: routes/routes.go
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/controllers"
)

// Register attaches all API endpoints to the app.
func Register(app *fiber.App, h *controllers.Handler) {
	api := app.Group("/api")

	api.Post("/locate", h.HandleLocate)

	api.Post("/reports", h.HandlePostReport)
	api.Get("/reports", h.HandleListReports)
	api.Get("/reports/:id", h.HandleGetReport)
	api.Post("/reports/:id/clean", h.HandleConfirmCleanup)
	api.Get("/cleaned", h.HandleListCleaned)

	api.Post("/users", h.HandleCreateAccount)
	api.Get("/users/:id", h.HandleGetAccount)
	api.Get("/me", h.HandleMe)
	api.Get("/leaderboard", h.HandleLeaderboard)
}

// path: controllers/locate.go
package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/models"
)

// HandleLocate turns coordinates into the area label shown before submitting.
func (h *Handler) HandleLocate(c *fiber.Ctx) error {
	var req models.LocateRequest
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	place, err := h.Reports.Locate(c.UserContext(), geo.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.LocateResponse{
		OK:        true,
		AreaLabel: place.Label,
		City:      place.City,
		Region:    place.Region,
		Country:   place.Country,
	})
}

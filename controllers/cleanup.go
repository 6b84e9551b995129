// path: controllers/cleanup.go
package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/services"
)

// HandleConfirmCleanup confirms the cleanup of report :id. Multipart fields:
// before and after photo files (at least one), note, and the device location.
func (h *Handler) HandleConfirmCleanup(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badReq(c, "invalid multipart form")
	}
	before, err := formImage(form, "before", h.MaxImageBytes)
	if err != nil {
		return badReq(c, err.Error())
	}
	after, err := formImage(form, "after", h.MaxImageBytes)
	if err != nil {
		return badReq(c, err.Error())
	}

	res, err := h.Cleanup.Confirm(c.UserContext(), services.CleanupRequest{
		ReportID: c.Params("id"),
		Before:   before,
		After:    after,
		Note:     c.FormValue("note"),
		Location: locationFromRequest(c),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.CleanupResp{OK: true, Report: res.Report, PointsAwarded: res.PointsAwarded})
}

// HandleListCleaned lists the cleanup records of ?cleaner=, defaulting to the caller.
func (h *Handler) HandleListCleaned(c *fiber.Ctx) error {
	cleaner := c.Query("cleaner")
	if cleaner == "" {
		me, err := h.Accounts.Me(c.UserContext())
		if err != nil {
			return h.fail(c, err)
		}
		cleaner = me.ID
	}
	items, err := h.Cleanup.ListCleaned(c.UserContext(), cleaner, queryLimit(c))
	if err != nil {
		return h.fail(c, err)
	}
	if items == nil {
		items = []models.CleanedReport{}
	}
	return c.JSON(models.CleanedListResp{OK: true, Items: items})
}

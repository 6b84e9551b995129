// path: controllers/reports_list.go
package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Developrimbor/GreenWorld-sub000/models"
)

// HandleListReports lists reports newest first. Filters: status, author,
// cleaned_by, type, bbox=minLng,minLat,maxLng,maxLat, cursor, limit.
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	f := models.ReportFilter{
		AuthorID:  c.Query("author"),
		CleanedBy: c.Query("cleaned_by"),
		Limit:     queryLimit(c),
	}

	switch s := models.ReportStatus(c.Query("status")); s {
	case "":
	case models.StatusReported, models.StatusCleaned:
		f.Status = s
	default:
		return badReq(c, "invalid status (reported|cleaned)")
	}

	if t := c.Query("type"); t != "" {
		wt, err := models.ParseWasteType(t)
		if err != nil {
			return badReq(c, err.Error())
		}
		f.Type = wt
	}

	if bb := c.Query("bbox"); bb != "" {
		minLng, minLat, maxLng, maxLat, err := parseBbox(bb)
		if err != nil {
			return badReq(c, "invalid bbox (minLng,minLat,maxLng,maxLat)")
		}
		f.BBox = &models.BBox{MinLng: minLng, MinLat: minLat, MaxLng: maxLng, MaxLat: maxLat}
	}

	if cursorHex := c.Query("cursor"); cursorHex != "" {
		if _, err := primitive.ObjectIDFromHex(cursorHex); err != nil {
			return badReq(c, "invalid cursor")
		}
		f.Cursor = cursorHex
	}

	items, next, err := h.Reports.List(c.UserContext(), f)
	if err != nil {
		return h.fail(c, err)
	}
	if items == nil {
		items = []models.WasteReport{}
	}
	return c.Status(fiber.StatusOK).JSON(models.ReportListResp{
		OK:         true,
		Items:      items,
		NextCursor: next,
	})
}

func parseBbox(s string) (minLng, minLat, maxLng, maxLat float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("need 4 numbers")
	}
	parse := func(i int) (float64, error) { return strconv.ParseFloat(strings.TrimSpace(parts[i]), 64) }
	if minLng, err = parse(0); err != nil {
		return
	}
	if minLat, err = parse(1); err != nil {
		return
	}
	if maxLng, err = parse(2); err != nil {
		return
	}
	if maxLat, err = parse(3); err != nil {
		return
	}
	if maxLng < minLng || maxLat < minLat {
		return 0, 0, 0, 0, fmt.Errorf("max must be >= min")
	}
	return
}

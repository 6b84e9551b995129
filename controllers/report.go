// path: controllers/report.go
package controllers

import (
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/services"
)

// HandlePostReport accepts a multipart waste report: lat, lng, type
// (comma-separated or repeated), quantity, additional_info, photo files under
// keys starting with "photo", and the device location fields.
func (h *Handler) HandlePostReport(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Status(fiber.StatusUnsupportedMediaType).
			JSON(ErrorResp{OK: false, Error: "unsupported content type"})
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badReq(c, "invalid multipart form")
	}

	lat, err := parseCoord(c.FormValue("lat"), "lat")
	if err != nil {
		return badReq(c, err.Error())
	}
	lng, err := parseCoord(c.FormValue("lng"), "lng")
	if err != nil {
		return badReq(c, err.Error())
	}
	types, err := models.ParseWasteTypes(form.Value["type"])
	if err != nil {
		return badReq(c, err.Error())
	}
	qty, err := models.ParseQuantity(c.FormValue("quantity"))
	if err != nil {
		return badReq(c, err.Error())
	}

	var images []services.Image
	for _, fh := range photoFiles(form) {
		img, err := readImage(fh, h.MaxImageBytes)
		if err != nil {
			return badReq(c, err.Error())
		}
		images = append(images, img)
	}

	id, err := h.Reports.Submit(c.UserContext(), services.ReportRequest{
		Point:          geo.Point{Lat: lat, Lng: lng},
		Types:          types,
		Quantity:       qty,
		Images:         images,
		AdditionalInfo: c.FormValue("additional_info"),
		Location:       locationFromRequest(c),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.CreateReportResp{OK: true, ID: id})
}

// photoFiles returns the files under "photo*" keys in a stable order: "photo"
// first, then numeric suffixes ascending, then any other suffix by name. Files
// repeated under one key keep their submitted order.
func photoFiles(form *multipart.Form) []*multipart.FileHeader {
	var keys []string
	for key := range form.File {
		if strings.HasPrefix(key, "photo") {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := strings.TrimPrefix(keys[i], "photo"), strings.TrimPrefix(keys[j], "photo")
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case a == "" || b == "":
			return a == "" && b != ""
		case errA == nil && errB == nil && na != nb:
			return na < nb
		case (errA == nil) != (errB == nil):
			return errA == nil
		}
		return a < b
	})

	var out []*multipart.FileHeader
	for _, key := range keys {
		out = append(out, form.File[key]...)
	}
	return out
}

func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	r, err := h.Reports.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "report": r})
}

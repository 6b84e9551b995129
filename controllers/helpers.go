// path: controllers/helpers.go
package controllers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/services"
)

// Handler serves the RecycleApp API.
type Handler struct {
	Reports       *services.ReportService
	Cleanup       *services.CleanupService
	Accounts      *services.AccountService
	MaxImageBytes int
	Logger        *slog.Logger
}

type ErrorResp struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	DistanceM *int   `json:"distance_m,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResp{OK: false, Error: msg, Kind: string(services.KindPrecondition)})
}

// fail writes err as the JSON error envelope with the status of its kind.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var werr *services.Error
	if !errors.As(err, &werr) {
		h.Logger.ErrorContext(c.UserContext(), "unclassified handler error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResp{OK: false, Error: "something went wrong", Kind: string(services.KindUnknown)})
	}
	resp := ErrorResp{OK: false, Error: werr.Message, Kind: string(werr.Kind), Retryable: werr.Retryable()}
	if werr.Kind == services.KindGeofence {
		d := werr.DistanceMeters
		resp.DistanceM = &d
	}
	return c.Status(statusFor(err, werr.Kind)).JSON(resp)
}

func statusFor(err error, k services.Kind) int {
	switch k {
	case services.KindPrecondition:
		if errors.Is(err, services.ErrReportNotFound) || errors.Is(err, services.ErrAccountNotFound) {
			return fiber.StatusNotFound
		}
		return fiber.StatusBadRequest
	case services.KindPermission:
		return fiber.StatusForbidden
	case services.KindLocationUnavailable:
		return fiber.StatusRequestTimeout
	case services.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case services.KindGeofence:
		return fiber.StatusUnprocessableEntity
	case services.KindUpload:
		return fiber.StatusBadGateway
	case services.KindWriteConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// parseBool understands common truthy strings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseCoord(raw, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func queryLimit(c *fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}

// readImage loads an uploaded photo into memory, rejecting files over max bytes.
func readImage(fh *multipart.FileHeader, max int) (services.Image, error) {
	if fh.Size > int64(max) {
		return services.Image{}, fmt.Errorf("photo %s is larger than %d MB", fh.Filename, max>>20)
	}
	src, err := fh.Open()
	if err != nil {
		return services.Image{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, int64(max)+1))
	if err != nil {
		return services.Image{}, err
	}
	if len(data) > max {
		return services.Image{}, fmt.Errorf("photo %s is larger than %d MB", fh.Filename, max>>20)
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return services.Image{}, fmt.Errorf("%s is not an image", fh.Filename)
	}
	return services.Image{Data: data, ContentType: ct}, nil
}

// formImage reads the single file under key, or returns nil when absent.
func formImage(form *multipart.Form, key string, max int) (*services.Image, error) {
	if form == nil || len(form.File[key]) == 0 {
		return nil, nil
	}
	img, err := readImage(form.File[key][0], max)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

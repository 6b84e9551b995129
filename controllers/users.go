// path: controllers/users.go
package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/models"
)

func (h *Handler) HandleCreateAccount(c *fiber.Ctx) error {
	var p models.CreateAccountPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	acct, err := h.Accounts.Create(c.UserContext(), p.Name, p.Username)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "user": acct})
}

func (h *Handler) HandleGetAccount(c *fiber.Ctx) error {
	acct, err := h.Accounts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "user": acct})
}

func (h *Handler) HandleMe(c *fiber.Ctx) error {
	acct, err := h.Accounts.Me(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "user": acct})
}

func (h *Handler) HandleLeaderboard(c *fiber.Ctx) error {
	items, err := h.Accounts.Leaderboard(c.UserContext(), queryLimit(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(models.LeaderboardResp{OK: true, Items: items})
}

// handlers/routes.go
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"fizzcaps-server/middleware"
	"fizzcaps-server/models"
	"fizzcaps-server/services"
)

// SetupRoutes wires the public API. Action routes (claims, shop, burns)
// carry the tight rate limiter on top of the app-level global one.
func SetupRoutes(app *fiber.App, claimService *services.ClaimService, playerService *services.PlayerService, catalog *models.Catalog) {
	action := middleware.ActionRateLimiter()

	// Static game data
	app.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(catalog.Locations)
	})
	app.Get("/quests", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "application/json")
		return c.Send(catalog.Quests)
	})
	app.Get("/mintables", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "application/json")
		return c.Send(catalog.Mintables)
	})

	// Player state (read-only; the server owns every mutation)
	app.Get("/player/:addr", func(c *fiber.Ctx) error {
		addr := c.Params("addr")
		if !services.ValidWallet(addr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid address"})
		}
		state, _, err := playerService.LoadOrDefault(c.Context(), addr)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(state)
	})

	// Claim pipeline
	app.Post("/find-loot", action, func(c *fiber.Ctx) error {
		var req services.ClaimRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		result, err := claimService.Claim(c.Context(), req)
		if err != nil {
			return errorJSON(c, err)
		}

		resp := fiber.Map{
			"success":       true,
			"totalCaps":     result.State.Caps,
			"lvl":           result.State.Level,
			"xp":            result.State.XP,
			"xpToNext":      result.State.XPToNext,
			"rads":          result.State.Rads,
			"claimed":       result.State.Claimed,
			"reward":        result.Reward,
			"gearDropped":   result.Reward.GearDropped,
			"distance_m":    result.DistanceM,
			"voucher":       result.Voucher,
			"server_pubkey": result.ServerPubkey,
		}
		if result.Reward.Gear != nil {
			resp["gear"] = result.Reward.Gear
		}
		return c.JSON(resp)
	})

	app.Post("/claim-voucher", action, func(c *fiber.Ctx) error {
		var req services.VoucherRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		voucher, err := claimService.ReissueVoucher(c.Context(), req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"voucher":       voucher,
			"server_pubkey": voucher.ServerPubkey,
		})
	})

	// Signed gameplay actions
	app.Post("/shop/buy", action, func(c *fiber.Ctx) error {
		var req struct {
			Wallet    string `json:"wallet"`
			Item      string `json:"item"`
			Message   string `json:"message"`
			Signature string `json:"signature"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		state, item, err := playerService.ShopBuy(c.Context(), req.Wallet, req.Item, req.Message, req.Signature)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"caps":    state.Caps,
			"hp":      state.HP,
			"rads":    state.Rads,
			"item":    item.ID,
		})
	})

	app.Post("/nuke-gear", action, func(c *fiber.Ctx) error {
		var req struct {
			Wallet    string `json:"wallet"`
			GearID    string `json:"gearId"`
			Message   string `json:"message"`
			Signature string `json:"signature"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		state, salvage, err := playerService.NukeGear(c.Context(), req.Wallet, req.GearID, req.Message, req.Signature)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"newCaps":    state.Caps,
			"capsGained": salvage,
			"gear":       state.Gear,
		})
	})

	equipHandler := func(equip bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			var req struct {
				Wallet    string `json:"wallet"`
				GearID    string `json:"gearId"`
				Message   string `json:"message"`
				Signature string `json:"signature"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
			}
			state, err := playerService.SetEquipped(c.Context(), req.Wallet, req.GearID, req.Message, req.Signature, equip)
			if err != nil {
				return errorJSON(c, err)
			}
			return c.JSON(fiber.Map{
				"success":  true,
				"equipped": state.Equipped,
				"maxHp":    state.MaxHP,
				"hp":       state.HP,
			})
		}
	}
	app.Post("/equip", action, equipHandler(true))
	app.Post("/unequip", action, equipHandler(false))

	app.Post("/api/terminal-reward", action, func(c *fiber.Ctx) error {
		var req struct {
			Wallet    string `json:"wallet"`
			Amount    int64  `json:"amount"`
			Message   string `json:"message"`
			Signature string `json:"signature"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		state, err := playerService.TerminalReward(c.Context(), req.Wallet, req.Amount, req.Message, req.Signature)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "newCaps": state.Caps})
	})
}

// errorJSON renders a GameError with its machine code; anything else is a 500
// without internals leaking to the client.
func errorJSON(c *fiber.Ctx, err error) error {
	if ge, ok := services.AsGameError(err); ok {
		body := fiber.Map{"error": ge.Message, "code": ge.Code}
		if ge.Code == services.CodeOutOfRange {
			body["distance_m"] = ge.DistanceM
		}
		if ge.Code == services.CodeCooldownActive {
			body["retry_after_s"] = int(ge.RetryAfter.Seconds()) + 1
		}
		return c.Status(ge.HTTPStatus).JSON(body)
	}
	log.Printf("❌ [API] unexpected error on %s: %v", c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

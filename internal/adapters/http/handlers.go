package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/questline/internal/core/domain"
)

// locationReport is the body of a position report.
type locationReport struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ReportLocationHandler evaluates a position report against the user's
// current target waypoint. Every expected condition is a 200 with an
// outcome kind; only storage failure is an error status.
func ReportLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		var report locationReport
		if err := c.BodyParser(&report); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !(domain.GeoPoint{Lat: report.Lat, Lon: report.Lon}).Valid() {
			return errBadRequest(c, "lat must be in [-90, 90] and lon in [-180, 180]")
		}

		outcome, err := deps.Progression.ReportLocation(c.UserContext(), userID, report.Lat, report.Lon)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "progress storage unavailable")
			}
			return errInternal(c, err.Error())
		}

		return c.JSON(outcome)
	}
}

// assignRouteRequest carries an explicit route to assign.
type assignRouteRequest struct {
	Waypoints domain.Route `json:"waypoints"`
}

// AssignRouteHandler replaces the user's route and resets progress. The
// accumulated balance is kept.
func AssignRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		var req assignRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		err := deps.Progression.AssignRoute(c.UserContext(), userID, req.Waypoints)
		switch {
		case errors.Is(err, domain.ErrInvalidRoute):
			return errBadRequest(c, err.Error())
		case errors.Is(err, domain.ErrStorageUnavailable):
			return errStorageUnavailable(c, "progress storage unavailable")
		case err != nil:
			return errInternal(c, err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":      "assigned",
			"total_steps": len(req.Waypoints),
		})
	}
}

// generateRouteRequest asks the generator for a fresh route.
type generateRouteRequest struct {
	Interests string `json:"interests"`
	Count     int    `json:"count"`
}

// GenerateRouteHandler builds a route from the user's interests and
// assigns it. With an empty interests field the stored profile is used.
func GenerateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		var req generateRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if req.Interests == "" && deps.Profiles != nil {
			if p, err := deps.Profiles.Get(c.UserContext(), userID); err == nil && p != nil {
				req.Interests = p.Interests
			}
		}
		if req.Interests == "" {
			return errBadRequest(c, "interests are required (in the request or the profile)")
		}

		route, err := deps.Progression.GenerateAndAssign(c.UserContext(), userID, req.Interests, req.Count)
		switch {
		case errors.Is(err, domain.ErrNoRouteProduced):
			return errGeneratorUnavailable(c, "route generator produced no route")
		case errors.Is(err, domain.ErrStorageUnavailable):
			return errStorageUnavailable(c, "progress storage unavailable")
		case err != nil:
			return errInternal(c, err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":      "assigned",
			"total_steps": len(route),
			"waypoints":   route,
		})
	}
}

// RouteStatusHandler returns the read-only progress projection.
func RouteStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		status, err := deps.Progression.CurrentStatus(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "progress storage unavailable")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(status)
	}
}

// registerRequest carries user registration data.
type registerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RegisterUserHandler creates or updates the user record.
func RegisterUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		profile, err := deps.Profiles.Register(c.UserContext(), userID, req.Name, req.Phone)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "user storage unavailable")
			}
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(profile)
	}
}

// GetProfileHandler returns a user's profile.
func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		profile, err := deps.Profiles.Get(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "user storage unavailable")
			}
			return errInternal(c, err.Error())
		}
		if profile == nil {
			return errNotFound(c, "user not found")
		}
		return c.JSON(profile)
	}
}

// interestsRequest carries a new free-text interest profile.
type interestsRequest struct {
	Interests string `json:"interests"`
}

// UpdateInterestsHandler stores a new interest profile.
func UpdateInterestsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("id")
		if userID == "" {
			return errBadRequest(c, "user id is required")
		}

		var req interestsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if err := deps.Profiles.UpdateInterests(c.UserContext(), userID, req.Interests); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "user storage unavailable")
			}
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "updated"})
	}
}

// SuggestInterestsHandler refines a free-text interest description into
// concrete suggestions. Degrades to echoing the input.
func SuggestInterestsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		return c.JSON(fiber.Map{
			"suggestions": deps.Profiles.SuggestInterests(c.UserContext(), q),
		})
	}
}

// ListShopItemsHandler returns the active reward catalog.
func ListShopItemsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := deps.Shop.ListActive(c.UserContext())
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "catalog storage unavailable")
			}
			return errInternal(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(items)
		if offset >= total {
			items = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			items = items[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// GetShopItemHandler returns a single catalog item.
func GetShopItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "item id is required")
		}
		item, err := deps.Shop.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "catalog storage unavailable")
			}
			return errInternal(c, err.Error())
		}
		if item == nil {
			return errNotFound(c, "shop item not found")
		}
		return c.JSON(item)
	}
}

// CreateShopItemHandler adds a catalog item.
func CreateShopItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item domain.ShopItem
		if err := c.BodyParser(&item); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id, err := deps.Shop.Create(c.UserContext(), &item)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "catalog storage unavailable")
			}
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// UpdateShopItemHandler replaces a catalog item.
func UpdateShopItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "item id is required")
		}

		var item domain.ShopItem
		if err := c.BodyParser(&item); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		item.ID = id

		if err := deps.Shop.Update(c.UserContext(), &item); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "catalog storage unavailable")
			}
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "updated"})
	}
}

// DeleteShopItemHandler removes a catalog item.
func DeleteShopItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "item id is required")
		}
		if err := deps.Shop.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return errStorageUnavailable(c, "catalog storage unavailable")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

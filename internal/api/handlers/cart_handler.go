package handlers

import (
	"Foodgram-Backend/domain"
	"Foodgram-Backend/internal/api/presenters"
	"Foodgram-Backend/pkg/cart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	CartHandler interface {
		GetShoppingList(c *fiber.Ctx) error
		DownloadShoppingList(c *fiber.Ctx) error
		SendShoppingList(c *fiber.Ctx) error
	}

	cartHandler struct {
		cartService cart.CartService
		validator   *validator.Validate
	}
)

func NewCartHandler(cartService cart.CartService, validator *validator.Validate) CartHandler {
	return &cartHandler{
		cartService: cartService,
		validator:   validator,
	}
}

func (h *cartHandler) GetShoppingList(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	items, err := h.cartService.Aggregate(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFromError(err), domain.MessageFailedGetShoppingList, err)
	}

	return presenters.SuccessResponse(c, domain.ShoppingListResponse{Items: items}, fiber.StatusOK, domain.MessageSuccessGetShoppingList)
}

func (h *cartHandler) DownloadShoppingList(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	items, err := h.cartService.Aggregate(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFromError(err), domain.MessageFailedGetShoppingList, err)
	}

	manifest := h.cartService.RenderManifest(items)

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="ShoppingList.txt"`)
	return c.SendString(manifest)
}

func (h *cartHandler) SendShoppingList(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.SendShoppingListRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSendShoppingList, err)
	}

	if err := h.cartService.SendShoppingList(c.Context(), userID, req.Email); err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFromError(err), domain.MessageFailedSendShoppingList, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSendShoppingList)
}

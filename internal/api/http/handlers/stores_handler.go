package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/service"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// StoresHandler exposes store management endpoints.
type StoresHandler struct {
	stores *service.StoreService
}

// NewStoresHandler constructs handler.
func NewStoresHandler(stores *service.StoreService) *StoresHandler {
	return &StoresHandler{stores: stores}
}

// Register handles POST /api/v1/stores.
func (h *StoresHandler) Register(c *fiber.Ctx) error {
	req, err := parseStoreRequest(c)
	if err != nil {
		return err
	}
	store, err := h.stores.Register(c.UserContext(), service.StoreInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewStoreResponse(store))
}

// Get handles GET /api/v1/stores/:storeId.
func (h *StoresHandler) Get(c *fiber.Ctx) error {
	store, err := h.stores.Get(c.UserContext(), c.Params("storeId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStoreResponse(store))
}

// GetByName handles GET /api/v1/stores/name/:storeName.
func (h *StoresHandler) GetByName(c *fiber.Ctx) error {
	name, err := nameParam(c, "storeName")
	if err != nil {
		return err
	}
	store, err := h.stores.GetByName(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStoreResponse(store))
}

// Update handles PUT /api/v1/stores/:storeId.
func (h *StoresHandler) Update(c *fiber.Ctx) error {
	req, err := parseStoreRequest(c)
	if err != nil {
		return err
	}
	store, err := h.stores.Update(c.UserContext(), c.Params("storeId"), service.StoreInput(req))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStoreResponse(store))
}

// Delete handles DELETE /api/v1/stores/:storeId.
func (h *StoresHandler) Delete(c *fiber.Ctx) error {
	if err := h.stores.Delete(c.UserContext(), c.Params("storeId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseStoreRequest(c *fiber.Ctx) (dto.StoreRequest, error) {
	var req dto.StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload")
	}
	return req, req.Validate()
}

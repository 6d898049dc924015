package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfly/shelfly-backend/internal/http/middleware"
	"github.com/shelfly/shelfly-backend/internal/http/response"
	"github.com/shelfly/shelfly-backend/internal/observability"
	"github.com/shelfly/shelfly-backend/internal/repository"
	"github.com/shelfly/shelfly-backend/internal/service"
)

type ProductHandler struct {
	svc service.ProductService
}

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	products, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	product, err := h.svc.GetByID(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"product": product})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	// owner_id never comes from the payload; the caller's identity decides it.
	var body struct {
		Name    string `json:"name"`
		Amount  int    `json:"amount"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	created, err := h.svc.Create(r.Context(), ownerID, service.CreateProductInput{
		Name:    body.Name,
		Amount:  body.Amount,
		Comment: body.Comment,
	})
	if err != nil {
		if isProductValidationError(err) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create product", nil)
		return
	}

	observability.Audit(r, "product.create", "product_id", created.ID, "name", created.Name)
	response.JSON(w, r, http.StatusCreated, map[string]any{"product": created})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	id := chi.URLParam(r, "id")
	var body struct {
		Name    *string `json:"name"`
		Amount  *int    `json:"amount"`
		Comment *string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	updated, err := h.svc.Update(r.Context(), ownerID, id, service.UpdateProductInput{
		Name:    body.Name,
		Amount:  body.Amount,
		Comment: body.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			// Mutations never confirm whether the id exists.
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "unable to update product", nil)
			return
		case isProductValidationError(err):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to update product", nil)
			return
		}
	}

	observability.Audit(r, "product.update", "product_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"product": updated})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteByID(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "unable to delete product", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete product", nil)
		return
	}

	observability.Audit(r, "product.delete", "product_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	var body struct {
		ProductIDs []string `json:"productIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	if _, err := h.svc.Reorder(r.Context(), ownerID, body.ProductIDs); err != nil {
		switch {
		case errors.Is(err, service.ErrReorderEmpty),
			errors.Is(err, service.ErrReorderDuplicate),
			errors.Is(err, service.ErrReorderUnknownProduct):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to reorder products", nil)
			return
		}
	}

	observability.Audit(r, "product.reorder", "count", len(body.ProductIDs))
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "products reordered"})
}

func isProductValidationError(err error) bool {
	return errors.Is(err, service.ErrProductNameRequired) ||
		errors.Is(err, service.ErrProductNameTooLong) ||
		errors.Is(err, service.ErrProductAmountNegative) ||
		errors.Is(err, service.ErrProductCommentTooLong)
}

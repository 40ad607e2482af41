package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/service/cart"
)

type cartHandler struct {
	svc cart.IService
}

func (h cartHandler) view(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	view, err := h.svc.View(r.Context(), principal.CustomerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h cartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}
	if req.ProductID == 0 {
		respondError(w, apperror.New(apperror.InvalidArgument, "product_id is required"))
		return
	}

	if err := h.svc.AddItem(r.Context(), principal.CustomerID, req.ProductID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Product added to cart successfully"})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h cartHandler) setItemQuantity(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid item id"))
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	if err := h.svc.SetItemQuantity(r.Context(), principal.CustomerID, itemID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart updated successfully"})
}

func (h cartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid item id"))
		return
	}

	if err := h.svc.RemoveItem(r.Context(), principal.CustomerID, itemID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

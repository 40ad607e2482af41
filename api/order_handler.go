package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/rafata1/gocommerce/service/order"
)

type orderHandler struct {
	svc order.IService
}

func (h orderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := h.svc.Checkout(r.Context(), principal.CustomerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Order created successfully",
		"order_id": orderID,
	})
}

func (h orderHandler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), principal.CustomerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h orderHandler) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid order id"))
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), principal.CustomerID, orderID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type createShippingRequest struct {
	Address        string `json:"address"`
	ShippingMethod string `json:"shipping_method"`
}

func (h orderHandler) createShipping(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid order id"))
		return
	}

	var req createShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	shipping, err := h.svc.CreateShipping(r.Context(), principal.CustomerID, orderID, req.Address, req.ShippingMethod)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, shipping)
}

type transitionRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (h orderHandler) transition(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid order id"))
		return
	}

	// Ownership first, so another customer's order id reads as absent.
	if _, err := h.svc.GetOrder(r.Context(), principal.CustomerID, orderID); err != nil {
		respondError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	if err := h.svc.TransitionStatus(r.Context(), orderID, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}

type addReportRequest struct {
	ReportText string `json:"report_text"`
}

func (h orderHandler) addReport(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid order id"))
		return
	}

	if _, err := h.svc.GetOrder(r.Context(), principal.CustomerID, orderID); err != nil {
		respondError(w, err)
		return
	}

	var req addReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	if err := h.svc.AddReport(r.Context(), orderID, req.ReportText); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Report added"})
}

func (h orderHandler) listReports(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		respondError(w, apperror.New(apperror.Unauthorized, "missing principal"))
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid order id"))
		return
	}

	if _, err := h.svc.GetOrder(r.Context(), principal.CustomerID, orderID); err != nil {
		respondError(w, err)
		return
	}

	reports, err := h.svc.ListReports(r.Context(), orderID)
	if err != nil {
		respondError(w, err)
		return
	}
	if reports == nil {
		reports = []model.OrderReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

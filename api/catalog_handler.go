package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/rafata1/gocommerce/service/catalog"
	"github.com/shopspring/decimal"
)

type catalogHandler struct {
	svc catalog.IService
}

func (h catalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	page, err := h.svc.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func parseProductFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Search:  q.Get("search"),
		OrderBy: q.Get("order_by"),
	}

	for param, dst := range map[string]*int64{
		"category": &filter.CategoryID,
		"brand":    &filter.BrandID,
		"color":    &filter.ColorID,
	} {
		if v := q.Get(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return catalog.Filter{}, apperror.Newf(apperror.InvalidArgument, "invalid %s", param)
			}
			*dst = id
		}
	}

	for param, dst := range map[string]*decimal.Decimal{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		if v := q.Get(param); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				return catalog.Filter{}, apperror.Newf(apperror.InvalidArgument, "invalid %s", param)
			}
			*dst = price
		}
	}

	for param, dst := range map[string]*int{
		"page":      &filter.Page,
		"page_size": &filter.PageSize,
	} {
		if v := q.Get(param); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return catalog.Filter{}, apperror.Newf(apperror.InvalidArgument, "invalid %s", param)
			}
			*dst = n
		}
	}

	return filter, nil
}

func (h catalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	// Numeric path segments look up by id, everything else by slug.
	if id, err := strconv.ParseInt(slug, 10, 64); err == nil {
		product, err := h.svc.GetProduct(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, product)
		return
	}

	product, err := h.svc.GetProductBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h catalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}
	product.IsActive = true

	id, err := h.svc.CreateProduct(r.Context(), product)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h catalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid product id"))
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.New(apperror.InvalidArgument, "invalid request body"))
		return
	}

	stock, err := h.svc.Restock(r.Context(), productID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"stock": stock})
}

func (h catalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h catalogHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.ListBrands(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if brands == nil {
		brands = []model.Brand{}
	}
	respondJSON(w, http.StatusOK, brands)
}

func (h catalogHandler) listColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.svc.ListColors(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if colors == nil {
		colors = []model.Color{}
	}
	respondJSON(w, http.StatusOK, colors)
}

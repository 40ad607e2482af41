package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rafata1/gocommerce/service/cart"
	"github.com/rafata1/gocommerce/service/catalog"
	"github.com/rafata1/gocommerce/service/identity"
	"github.com/rafata1/gocommerce/service/order"
)

// NewRouter wires every handler behind the auth middleware except the
// public catalog and auth endpoints.
func NewRouter(
	identitySvc identity.IService,
	catalogSvc catalog.IService,
	cartSvc cart.IService,
	orderSvc order.IService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	auth := authHandler{svc: identitySvc}
	cat := catalogHandler{svc: catalogSvc}
	crt := cartHandler{svc: cartSvc}
	ord := orderHandler{svc: orderSvc}

	r.Post("/auth/signup", auth.signUp)
	r.Post("/auth/signin", auth.signIn)

	r.Get("/products", cat.listProducts)
	r.Get("/products/{slug}", cat.getProduct)
	r.Get("/categories", cat.listCategories)
	r.Get("/brands", cat.listBrands)
	r.Get("/colors", cat.listColors)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(identitySvc))

		r.Get("/auth/profile", auth.profile)

		r.Post("/products", cat.createProduct)
		r.Post("/products/{productID}/restock", cat.restock)

		r.Get("/cart", crt.view)
		r.Post("/cart/items", crt.addItem)
		r.Put("/cart/items/{itemID}", crt.setItemQuantity)
		r.Delete("/cart/items/{itemID}", crt.removeItem)

		r.Post("/orders", ord.checkout)
		r.Get("/orders", ord.list)
		r.Get("/orders/{orderID}", ord.get)
		r.Put("/orders/{orderID}/status", ord.transition)
		r.Post("/orders/{orderID}/shipping", ord.createShipping)
		r.Post("/orders/{orderID}/reports", ord.addReport)
		r.Get("/orders/{orderID}/reports", ord.listReports)
	})

	return r
}

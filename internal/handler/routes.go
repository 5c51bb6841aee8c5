package handler

import (
	"github.com/labstack/echo/v4"
)

// Router is the route registration surface shared by *echo.Echo and *echo.Group
type Router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Handlers groups every route handler of the service
type Handlers struct {
	Products     *ProductHandler
	Categories   *CategoryHandler
	Transactions *TransactionHandler
	Invoices     *InvoiceHandler
}

// Register mounts the public routes on r. Catalog writes go through guard
// when it is non-nil.
func (h *Handlers) Register(r Router, guard echo.MiddlewareFunc) {
	var write []echo.MiddlewareFunc
	if guard != nil {
		write = append(write, guard)
	}

	// Catalog
	r.GET("/products", h.Products.ListProducts)
	r.GET("/products/:id", h.Products.GetProduct)
	r.POST("/products", h.Products.CreateProduct, write...)
	r.PUT("/products/:id", h.Products.UpdateProduct, write...)
	r.DELETE("/products/:id", h.Products.DeleteProduct, write...)

	r.GET("/categories", h.Categories.ListCategories)
	r.POST("/categories", h.Categories.CreateCategory, write...)
	r.PUT("/categories/:id", h.Categories.UpdateCategory, write...)
	r.DELETE("/categories/:id", h.Categories.DeleteCategory, write...)

	// Checkout
	r.GET("/transactions/payment-channels", h.Transactions.PaymentChannels)
	r.POST("/transactions/create", h.Transactions.CreateTransaction)

	// Invoices
	r.GET("/invoices", h.Invoices.ListInvoices)
}

package router

import (
	"github.com/aquapet/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers served under the versioned API prefix
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Catalog   *handler.CatalogHandler
	Order     *handler.OrderHandler
	Webhook   *handler.WebhookHandler
	Inventory *handler.InventoryHandler
	Images    *handler.ProductImageHandler
}

// ProductImagesPath is the admin image upload route, relative to /admin
const ProductImagesPath = "/products/:id/images"

// Guards are the per-route access checks. A nil guard is skipped.
type Guards struct {
	// Auth requires a valid access token
	Auth gin.HandlerFunc
	// Admin requires the admin role; it runs after Auth
	Admin gin.HandlerFunc
	// POS checks the point-of-sale shared key
	POS gin.HandlerFunc
	// WebhookBody caps the size of provider callbacks
	WebhookBody gin.HandlerFunc
}

func chain(guards ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards))
	for _, g := range guards {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

func with(h gin.HandlerFunc, guards ...gin.HandlerFunc) []gin.HandlerFunc {
	return append(chain(guards...), h)
}

// ShopGroups builds the storefront's domain groups
func ShopGroups(h Handlers, g Guards) []*DomainGroup {
	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", with(h.Auth.Logout, g.Auth)...)

	users := NewDomainGroup("users", "/users/me").Use(chain(g.Auth)...)
	users.GET("", h.User.Me)
	users.PUT("", h.User.UpdateProfile)
	users.PUT("/password", h.User.ChangePassword)

	catalog := NewDomainGroup("catalog", "")
	catalog.GET("/products", h.Catalog.ListProducts)
	catalog.GET("/products/featured", h.Catalog.Featured)
	catalog.GET("/products/search", h.Catalog.Search)
	catalog.GET("/products/:id", h.Catalog.GetProduct)
	catalog.GET("/categories", h.Catalog.Categories)
	catalog.GET("/animals", h.Catalog.Animals)

	checkoutGroup := NewDomainGroup("checkout", "/checkout")
	checkoutGroup.POST("/quote", h.Order.Quote)

	// the webhook is authenticated by its signature, so the group itself
	// carries no JWT guard
	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", with(h.Order.CreateCheckout, g.Auth)...)
	orders.GET("", with(h.Order.ListOrders, g.Auth)...)
	orders.GET("/session/:session_id", with(h.Order.GetBySession, g.Auth)...)
	orders.POST("/webhook", with(h.Webhook.HandleStripeWebhook, g.WebhookBody)...)

	admin := NewDomainGroup("admin", "/admin").Use(chain(g.Auth, g.Admin)...)
	admin.PATCH("/orders/:id/status", h.Order.AdvanceStatus)
	admin.POST(ProductImagesPath, h.Images.Upload)

	inventory := NewDomainGroup("inventory", "/inventory").Use(chain(g.POS)...)
	inventory.POST("/scan", h.Inventory.Scan)
	inventory.GET("/lookup/:barcode", h.Inventory.Lookup)

	return []*DomainGroup{authGroup, users, catalog, checkoutGroup, orders, admin, inventory}
}

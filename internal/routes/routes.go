package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
	pa "storefront_back_end/internal/handlers/payement"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/user"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
)

// Deps regroupe ce dont les routes ont besoin.
type Deps struct {
	Carts    *services.CartService
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Cache    *cache.Cache

	Sessions      sessions.Store
	JWTSecret     []byte
	CORSOrigins   []string
	CartRateLimit int64
	Log           *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = d.CORSOrigins
	} else {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsConfig))
	r.Use(middleware.RequestLogger(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cartH := user.NewCartHandler(d.Carts, d.Log)
	syncH := user.NewCartSync(d.Carts, d.Cache, d.CORSOrigins, d.Log)
	orderH := user.NewOrderHandler(d.Orders, d.Log)
	checkoutH := pa.NewCheckoutHandler(d.Checkout, d.Carts, d.Log)
	adminH := pa.NewAdminOrderHandler(d.Orders, d.Log)
	productH := product.NewHandler(d.Catalog, d.Log)

	api := r.Group("/api")
	api.GET("/products/:slug", productH.GetProduct)
	api.GET("/shipping/options", checkoutH.GetShippingOptions)

	// Storefront : session visiteur + identification facultative
	shop := api.Group("")
	shop.Use(middleware.Session(d.Sessions, d.Log), middleware.OptionalAuth(d.JWTSecret))
	{
		limited := middleware.CartRateLimit(d.Cache, d.CartRateLimit, d.Log)

		shop.GET("/cart", cartH.GetCart)
		shop.GET("/cart/ws", syncH.CartWebSocket)
		shop.POST("/cart/add", limited, cartH.AddToCart)
		shop.PATCH("/cart/items/:item", limited, cartH.UpdateQuantity)
		shop.DELETE("/cart/items/:item", limited, cartH.RemoveItem)
		shop.DELETE("/cart", limited, cartH.ClearCart)

		shop.GET("/checkout", checkoutH.GetCheckout)
		shop.POST("/checkout", checkoutH.Checkout)
		shop.GET("/checkout/success/:id", checkoutH.GetConfirmation)
	}

	// Commandes du client connecté
	account := api.Group("/orders")
	account.Use(middleware.AuthRequired(d.JWTSecret))
	{
		account.GET("", orderH.GetMyOrders)
		account.GET("/:id", orderH.GetMyOrder)
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.Session(d.Sessions, d.Log), middleware.AuthRequired(d.JWTSecret))
	{
		admin.GET("/orders", middleware.RequirePermission(models.PERM_ORDERS_VIEW), adminH.GetAllOrders)
		admin.GET("/dashboard", middleware.RequirePermission(models.PERM_ORDERS_VIEW), adminH.GetDashboardStats)
		admin.GET("/orders/:id", middleware.RequirePermission(models.PERM_ORDERS_VIEW), adminH.GetOrder)
		admin.PATCH("/orders/:id/status", middleware.RequireAdmin, middleware.RequirePermission(models.PERM_ORDERS_EDIT), adminH.UpdateOrderStatus)
	}
}

package routers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/cache"
	"storefront/config"
	"storefront/handlers"
	"storefront/middleware"
	"storefront/ratelimit"
	"storefront/repository"
)

const webhookPath = "/api/payments/paystack-webhook"

// Deps wires the route table. A nil Metrics gatherer leaves /metrics unregistered.
type Deps struct {
	Config  config.Config
	Handler *handlers.Handler
	Auth    *middleware.Auth
	Cache   cache.Store
	Limiter ratelimit.Limiter
	Metrics prometheus.Gatherer
	Log     *zap.Logger
}

func corsConfig(cfg config.ServerConfig) cors.Config {
	seen := map[string]bool{}
	var origins []string
	for _, o := range append([]string{cfg.FrontendURL}, cfg.AllowedOrigins...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func rule(name string, r config.LimitRule) ratelimit.Rule {
	return ratelimit.Rule{Name: name, Max: r.Max, Window: r.Window}
}

func SetupRouters(d Deps) *gin.Engine {
	cfg := d.Config
	h := d.Handler
	log := d.Log

	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to reset trusted proxies", zap.Error(err))
	}
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Metrics(),
		middleware.RequestLogger(log),
		cors.New(corsConfig(cfg.Server)),
		middleware.SecurityHeaders(cfg.IsProduction()),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
	})

	router.Static("/uploads", cfg.Server.UploadDir)
	router.GET("/health", h.Health)
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	authLimit := middleware.RateLimit(d.Limiter, rule("auth", cfg.RateLimit.Auth), log)
	uploadLimit := middleware.RateLimit(d.Limiter, rule("upload", cfg.RateLimit.Upload), log)
	orderLimit := middleware.RateLimit(d.Limiter, rule("orders", cfg.RateLimit.Orders), log)

	authenticate := d.Auth.Authenticate()
	admin := middleware.RequireAdmin()
	ttl := cfg.Cache.TTL
	productCache := middleware.Cache(d.Cache, "products", ttl, false, log)
	settingsCache := middleware.Cache(d.Cache, "settings", ttl, false, log)
	dropProducts := middleware.InvalidateCache(d.Cache, log, "products")
	dropSettings := middleware.InvalidateCache(d.Cache, log, "settings")

	api := router.Group("/api")
	api.Use(
		middleware.RateLimit(d.Limiter, rule("general", cfg.RateLimit.General), log),
		middleware.Sanitize(webhookPath),
	)

	products := api.Group("/products")
	{
		products.GET("", productCache, h.ListProducts)
		products.GET("/featured", productCache, h.FeaturedProducts)
		products.GET("/trending", productCache, h.TrendingProducts)
		products.GET("/categories", productCache, h.ProductCategories)
		products.GET("/category/:category", productCache, h.ProductsByCategory)
		products.GET("/:id", productCache, h.GetProduct)
		products.POST("", authenticate, admin, dropProducts, h.CreateProduct)
		products.PUT("/:id", authenticate, admin, dropProducts, h.UpdateProduct)
		products.DELETE("/:id", authenticate, admin, dropProducts, h.DeleteProduct)
	}

	orders := api.Group("/orders", authenticate)
	{
		orders.POST("", orderLimit, h.CreateOrder)
		orders.GET("/my", h.MyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("", admin, h.ListOrders)
		orders.PUT("/:id", admin, h.UpdateOrder)
		orders.DELETE("/:id", admin, h.DeleteOrder)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", authLimit, h.Register)
		auth.POST("/login", authLimit, h.Login)
		auth.POST("/resend-verification", authLimit, h.ResendVerification)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", authenticate, h.Me)

		for _, name := range []string{repository.ProviderGoogle, repository.ProviderFacebook} {
			auth.GET("/"+name, h.OAuthStart(name))
			auth.GET("/"+name+"/callback", h.OAuthCallback(name))
			auth.POST("/"+name, authLimit, h.OAuthExchange(name))
		}
	}

	profile := api.Group("/profile", authenticate)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.PUT("/password", h.ChangePassword)
		profile.POST("/upload", uploadLimit, h.UploadAvatar)
	}

	users := api.Group("/users", authenticate, admin)
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", settingsCache, h.GetSettings)
		settings.GET("/:key", settingsCache, h.GetSetting)
		settings.PUT("", authenticate, admin, dropSettings, h.UpdateSettings)
		settings.DELETE("/:key", authenticate, admin, dropSettings, h.DeleteSetting)
	}

	api.POST("/upload", uploadLimit, authenticate, admin, h.UploadImage)

	payments := api.Group("/payments")
	{
		payments.POST("/verify-paystack", authenticate, h.VerifyPaystack)
		payments.POST("/paystack-webhook", h.PaystackWebhook)
	}

	return router
}

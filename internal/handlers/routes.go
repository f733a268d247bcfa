package handlers

import (
	"time"

	"github.com/developia-II/storeblog-backend/internal/middleware"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/services/admin"
	"github.com/developia-II/storeblog-backend/internal/services/auth"
	"github.com/developia-II/storeblog-backend/internal/services/blog"
	"github.com/developia-II/storeblog-backend/internal/services/cart"
	"github.com/developia-II/storeblog-backend/internal/services/catalog"
	"github.com/developia-II/storeblog-backend/internal/services/checkout"
	"github.com/developia-II/storeblog-backend/internal/services/tag"
	"github.com/developia-II/storeblog-backend/internal/uploads"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services bundles everything the routes dispatch to.
type Services struct {
	Auth     *auth.Service
	Admin    *admin.Service
	Catalog  *catalog.Service
	Cart     *cart.Service
	Checkout *checkout.Service
	Blog     *blog.Service
	Tags     *tag.Service
}

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	UploadsDir     string
	// MaxBodyBytes caps multipart request bodies.
	MaxBodyBytes int64
	Cookie       CookieConfig
	// AuthLimiter throttles the /api/auth group; nil disables it.
	AuthLimiter *middleware.RateLimiter
	DB          Pinger
	Files       FileStore
}

// NewRouter builds the engine with the global middleware chain.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Tracing(cfg.ServiceName),
	)
	// cors.New panics without origins; no origins means same-origin only.
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		router.Use(limitBody(cfg.MaxBodyBytes))
	}
	return router
}

func SetupRoutes(router *gin.Engine, svc Services, cfg RouterConfig) {
	logrus.Info("Setting up routes...")

	health := &HealthHandler{DB: cfg.DB, ServiceName: cfg.ServiceName}
	router.GET("/", health.Root)
	router.GET("/health", health.Liveness)
	router.GET("/ready", health.Readiness)

	if cfg.UploadsDir != "" {
		router.Static(uploads.PublicPrefix, cfg.UploadsDir)
	}

	authHandler := NewAuthHandler(svc.Auth, cfg.Files, cfg.Cookie)
	adminHandler := NewAdminHandler(svc.Admin)
	categoryHandler := NewCategoryHandler(svc.Catalog, cfg.Files)
	productHandler := NewProductHandler(svc.Catalog, cfg.Files)
	cartHandler := NewCartHandler(svc.Cart)
	orderHandler := NewOrderHandler(svc.Checkout)
	blogHandler := NewBlogHandler(svc.Blog, svc.Tags, cfg.Files)

	requireAuth := middleware.AuthMiddleware(svc.Auth, cfg.Cookie.Name)
	api := router.Group("/api")

	authGroup := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		authGroup.Use(cfg.AuthLimiter.Handler())
	}
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/verify-otp", authHandler.VerifyOTP)
		authGroup.POST("/resend-otp", authHandler.ResendOTP)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/user-details", requireAuth, authHandler.UserDetails)
		authGroup.PUT("/user-profile", requireAuth, authHandler.UpdateProfile)
	}

	// Public storefront
	cat := api.Group("/cat")
	{
		cat.GET("/categories", categoryHandler.ListCategories)
		cat.GET("/categories/:id", categoryHandler.GetCategory)
		cat.GET("/categories/:id/subcategories", categoryHandler.ListSubcategories)
		cat.GET("/products", productHandler.ListProducts)
		cat.GET("/products/:id", productHandler.GetProduct)

		cat.GET("/liked-products", requireAuth, productHandler.LikedProducts)
		cat.POST("/products/:id/like", requireAuth, productHandler.LikeProduct)
		cat.DELETE("/products/:id/like", requireAuth, productHandler.UnlikeProduct)
		cat.POST("/products/:id/toggle-like", requireAuth, productHandler.ToggleLike)
	}

	carts := api.Group("/cart", requireAuth)
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items", cartHandler.UpdateQuantity)
		carts.DELETE("/items/:productId", cartHandler.RemoveFromCart)
		carts.POST("/remove", cartHandler.RemoveFromCart)
		carts.DELETE("", cartHandler.ClearCart)
	}

	orders := api.Group("/checkout", requireAuth)
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/orders", orderHandler.GetUserOrders)
		orders.GET("/orders/:id", orderHandler.GetOrderByID)
		orders.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	}

	blogs := api.Group("/blog", requireAuth)
	{
		blogs.GET("/blogs", blogHandler.ListBlogs)
		blogs.GET("/blogs/:id", blogHandler.GetBlog)
		blogs.POST("/comment", blogHandler.AddComment)
		blogs.POST("/comment/reply", blogHandler.AddReply)
		blogs.DELETE("/comment", blogHandler.DeleteComment)
		blogs.POST("/review", blogHandler.AddReview)
	}

	adminGroup := api.Group("/admin", requireAuth, middleware.RoleMiddleware(models.RoleAdmin))
	{
		adminGroup.GET("/dashboard", adminHandler.Dashboard)

		adminGroup.GET("/users", adminHandler.ListUsers)
		adminGroup.GET("/users/:id", adminHandler.GetUser)
		adminGroup.POST("/users/:id/toggle-status", adminHandler.ToggleUserStatus)
		adminGroup.PUT("/users/:id/role", adminHandler.ChangeUserRole)

		adminGroup.GET("/categories", categoryHandler.AdminListCategories)
		adminGroup.POST("/category", categoryHandler.CreateCategory)
		adminGroup.PUT("/category/:id", categoryHandler.UpdateCategory)
		adminGroup.DELETE("/category/:id", categoryHandler.DeleteCategory)
		adminGroup.POST("/category/:id/restore", categoryHandler.RestoreCategory)

		adminGroup.GET("/subcategories", categoryHandler.ListSubcategories)
		adminGroup.POST("/subcategory", categoryHandler.CreateSubcategory)
		adminGroup.PUT("/subcategory/:id", categoryHandler.UpdateSubcategory)
		adminGroup.DELETE("/subcategory/:id", categoryHandler.DeleteSubcategory)
		adminGroup.POST("/subcategory/:id/restore", categoryHandler.RestoreSubcategory)

		adminGroup.GET("/products", productHandler.AdminListProducts)
		adminGroup.GET("/product/:id", productHandler.AdminGetProduct)
		adminGroup.POST("/product", productHandler.CreateProduct)
		adminGroup.PUT("/product/:id", productHandler.UpdateProduct)
		adminGroup.DELETE("/product/:id", productHandler.DeleteProduct)
		adminGroup.POST("/product/:id/restore", productHandler.RestoreProduct)
		adminGroup.POST("/product/:id/toggle-visibility", productHandler.ToggleVisibility)

		adminGroup.GET("/orders", orderHandler.GetAllOrders)
		adminGroup.GET("/order/:id", orderHandler.GetOrderByID)
		adminGroup.PUT("/order/:id/status", orderHandler.UpdateOrderStatus)

		adminGroup.GET("/blogs", blogHandler.ListBlogs)
		adminGroup.POST("/blog", blogHandler.CreateBlog)
		adminGroup.PUT("/blog/:id", blogHandler.UpdateBlog)
		adminGroup.DELETE("/blog/:id", blogHandler.DeleteBlog)
		adminGroup.PUT("/blog/:id/toggle-status", blogHandler.TogglePublish)

		adminGroup.GET("/tags", blogHandler.ListTags)
		adminGroup.POST("/tag", blogHandler.AddTag)
		adminGroup.DELETE("/tag/:id", blogHandler.DeleteTag)
	}
}

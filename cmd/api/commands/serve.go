package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository"
	"github.com/developia-II/storeblog-backend/internal/config"
	"github.com/developia-II/storeblog-backend/internal/core/telemetry"
	"github.com/developia-II/storeblog-backend/internal/database"
	"github.com/developia-II/storeblog-backend/internal/handlers"
	"github.com/developia-II/storeblog-backend/internal/middleware"
	"github.com/developia-II/storeblog-backend/internal/notify"
	"github.com/developia-II/storeblog-backend/internal/services/admin"
	"github.com/developia-II/storeblog-backend/internal/services/auth"
	"github.com/developia-II/storeblog-backend/internal/services/blog"
	"github.com/developia-II/storeblog-backend/internal/services/cart"
	"github.com/developia-II/storeblog-backend/internal/services/catalog"
	"github.com/developia-II/storeblog-backend/internal/services/checkout"
	"github.com/developia-II/storeblog-backend/internal/services/tag"
	"github.com/developia-II/storeblog-backend/internal/uploads"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var skipIndexes bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipIndexes, "skip-indexes", false, "Do not create MongoDB indexes on startup")
}

func serve(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.Setup(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logrus.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()

	if !skipIndexes {
		if err := database.EnsureIndexes(ctx, db.DB); err != nil {
			return err
		}
	}

	files, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	svc := newServices(cfg, db, files, notifier)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rdb := newRedis(ctx, cfg.RateLimit.RedisURL)
		if rdb != nil {
			defer rdb.Close()
		}
		limiter = middleware.NewRateLimiter(rdb, middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst), "auth")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := handlers.RouterConfig{
		ServiceName:    cfg.Otel.ServiceName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		UploadsDir:     files.Root(),
		// A request may carry several images plus form fields.
		MaxBodyBytes: 10*cfg.Uploads.MaxBytes + 1<<20,
		Cookie:       handlers.CookieConfig{Name: cfg.JWT.CookieName, Secure: cfg.JWT.CookieSecure},
		AuthLimiter:  limiter,
		DB:           db,
		Files:        files,
	}
	router := handlers.NewRouter(routerCfg)
	handlers.SetupRoutes(router, svc, routerCfg)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.App.Environment,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logrus.Info("Server stopped")
	return nil
}

func newNotifier(cfg *config.Config) (*notify.Notifier, error) {
	var sender notify.Sender = notify.LogSender{}
	if cfg.Mail.MailEnabled() {
		sender = notify.NewSMTPSender(cfg.Mail)
	} else {
		logrus.Warn("SMTP_HOST not set, emails will only be logged")
	}
	return notify.New(sender, notify.Config{
		AppName:  cfg.App.Name,
		OTPTTL:   cfg.Auth.OTPTTL,
		ResetTTL: cfg.Auth.ResetTTL,
	})
}

func newServices(cfg *config.Config, db *database.Database, files *uploads.Store, notifier *notify.Notifier) handlers.Services {
	users := repository.NewUserRepository(db.DB)
	products := repository.NewProductRepository(db.DB)
	orders := repository.NewCheckoutRepository(db.DB)
	carts := repository.NewCartRepository(db.DB)
	blogs := repository.NewBlogRepository(db.DB)
	tags := tag.NewService(repository.NewTagRepository(db.DB), blogs)

	return handlers.Services{
		Auth: auth.NewService(users, utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL), notifier, files, auth.Config{
			OTPTTL:      cfg.Auth.OTPTTL,
			ResetTTL:    cfg.Auth.ResetTTL,
			BcryptCost:  cfg.Auth.BcryptCost,
			FrontendURL: cfg.App.FrontendURL,
		}),
		Admin: admin.NewService(users, products, orders, notifier),
		Catalog: catalog.NewService(
			repository.NewCategoryRepository(db.DB),
			repository.NewSubcategoryRepository(db.DB),
			products,
			files,
		),
		Cart:     cart.NewService(carts, products),
		Checkout: checkout.NewService(orders, products, carts, notifier),
		Blog: blog.NewService(blogs, users, tags, files, blog.Config{
			MaxReplyDepth: cfg.Blog.MaxReplyDepth,
			SaveRetries:   cfg.Blog.SaveRetries,
		}),
		Tags: tags,
	}
}

// newRedis returns nil when no URL is configured or the server is
// unreachable; the rate limiter then counts in process memory.
func newRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logrus.WithError(err).Warn("Invalid REDIS_URL, using in-memory rate limiting")
		return nil
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, using in-memory rate limiting")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markethall/storefront-api/internal/cart"
	"github.com/markethall/storefront-api/internal/config"
	"github.com/markethall/storefront-api/internal/coupon"
	"github.com/markethall/storefront-api/internal/handlers"
	"github.com/markethall/storefront-api/internal/middleware"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/notifier"
	"github.com/markethall/storefront-api/internal/repository"
	"github.com/markethall/storefront-api/internal/service"
	"github.com/markethall/storefront-api/internal/storage"
	"github.com/markethall/storefront-api/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	// Initialize persistence
	var store repository.Store
	storeMode := "memory"
	if cfg.Database.DSN != "" {
		gormStore, err := repository.NewGormStore(cfg.Database.DSN)
		if err != nil {
			log.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		store = gormStore
		storeMode = "postgres"
		log.Info("connected to postgres")
	} else {
		memStore := repository.NewMemoryStore()
		memStore.Coupons().(*repository.InMemoryCouponRepository).Seed([]models.Coupon{
			{Code: "WELCOME10", DiscountType: models.DiscountPercentage, DiscountValue: 10, MaxDiscount: 20, IsActive: true},
		})
		store = memStore
		log.Warn("DATABASE_DSN not set, running on the in-memory store")
	}

	// Initialize coupon evaluator and warm the code filter. Periodic re-warms
	// pick up coupons administrators create while the server runs.
	evaluator := coupon.NewEvaluator(store.Coupons())
	if err := evaluator.Warm(ctx); err != nil {
		// The evaluator falls back to direct lookups until warmed.
		log.Warn("failed to warm coupon filter", "error", err)
	}
	warmCtx, stopWarming := context.WithCancel(ctx)
	defer stopWarming()
	go evaluator.WarmPeriodically(warmCtx, time.Minute, func(err error) {
		log.Warn("failed to re-warm coupon filter", "error", err)
	})

	// Initialize notification sender
	var notify notifier.Notifier
	if cfg.Email.Enabled {
		sesNotifier, err := notifier.NewSESNotifier(ctx, cfg.Email)
		if err != nil {
			log.Error("failed to initialize email notifier", "error", err)
			os.Exit(1)
		}
		notify = sesNotifier
	} else {
		notify = notifier.NewLogNotifier(log)
	}

	// Initialize receipt storage (optional)
	var receipts storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			log.Error("failed to initialize receipt storage", "error", err)
			os.Exit(1)
		}
		receipts = s3Store
	}

	// Initialize session carts
	carts := cart.NewMemoryStore()

	// Initialize services
	productService := service.NewProductService(store.Products())
	checkoutService := service.NewCheckoutService(carts, store.Orders(), evaluator, notify, cfg.Email.OperatorEmail, log)
	orderService := service.NewOrderService(store.Orders(), notify, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log, storeMode)
	productHandler := handlers.NewProductHandler(productService, log)
	cartHandler := handlers.NewCartHandler(carts, productService, log)
	couponHandler := handlers.NewCouponHandler(evaluator, carts, log)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, receipts, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.RateLimit(middleware.NewWindowLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute)))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check and metrics endpoints
	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Product endpoints
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		// Cart endpoints
		r.Route("/cart/{sessionId}", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddLine)
			r.Put("/items/{lineId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{lineId}", cartHandler.RemoveLine)
			r.Post("/coupon", couponHandler.ApplyCoupon)
		})

		// Checkout endpoints
		r.Post("/checkout/{sessionId}", checkoutHandler.PlaceOrder)
		r.Post("/checkout/{sessionId}/receipt", checkoutHandler.UploadReceipt)

		// Order lookup
		r.Get("/order/{orderId}", orderHandler.GetOrder)

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))
			r.Get("/orders", orderHandler.ListOrders)
			r.Post("/orders/{orderId}/approve", orderHandler.ApproveOrder)
			r.Post("/orders/{orderId}/reject", orderHandler.RejectOrder)
			r.Get("/coupons/stats", couponHandler.GetStats)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

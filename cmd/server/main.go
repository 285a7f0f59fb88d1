package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	cartcache "github.com/tuandang99/newshop/internal/cart/cache"
	cartrepo "github.com/tuandang99/newshop/internal/cart/repository"
	cartservice "github.com/tuandang99/newshop/internal/cart/service"
	"github.com/tuandang99/newshop/internal/config"
	h "github.com/tuandang99/newshop/internal/http"
	"github.com/tuandang99/newshop/internal/notify"
	orderrepo "github.com/tuandang99/newshop/internal/order/repository"
	orderservice "github.com/tuandang99/newshop/internal/order/service"
	productrepo "github.com/tuandang99/newshop/internal/product/repository"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB holds the per-session carts
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cartrepo.ConnectOptions{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDBName,
		MaxPoolSize: uint64(cfg.MongoMaxPoolSize),
		MinPoolSize: uint64(cfg.MongoMinPoolSize),
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := cartrepo.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	cartRepository := cartrepo.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	// Postgres holds orders and the product catalog
	creds := &orderrepo.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}
	orderRepository, err := orderrepo.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer orderRepository.Close()
	if err := orderRepository.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to postgres at %s:%d", cfg.PostgresHost, cfg.PostgresPort)

	productRepository := productrepo.NewRepository(orderRepository.DB())

	carts := cartservice.NewCartService(cartRepository, cartcache.NewRedisCache(redisClient))

	notifier := notify.NewFromConfig(cfg.TelegramBotToken, cfg.TelegramChatID)
	dispatcher := notify.NewDispatcher(notifier)
	go dispatcher.Run(ctx)

	orders := orderservice.NewOrderService(orderRepository, carts, dispatcher)

	cartHandler := h.NewCartHandler(carts, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(orders, cfg.RequestTimeout)
	productsHandler := h.NewProductsHandler(productRepository, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Post("/toggle", cartHandler.ToggleOpen)
		})

		r.Post("/checkout", ordersHandler.Checkout)
		r.Post("/orders", ordersHandler.CreateOrder)

		r.Get("/products", productsHandler.ListProducts)
		r.Get("/products/{product_id}", productsHandler.GetProduct)

		// Operator panel
		r.Group(func(r chi.Router) {
			r.Use(h.AdminMiddleware(cfg.AdminToken))
			r.Get("/orders", ordersHandler.ListOrders)
			r.Get("/orders/{order_id}", ordersHandler.GetOrder)
			r.Put("/orders/{order_id}/status", ordersHandler.UpdateStatus)
			r.Post("/products", productsHandler.CreateProduct)
			r.Put("/products/{product_id}", productsHandler.UpdateProduct)
			r.Delete("/products/{product_id}", productsHandler.DeleteProduct)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	cancel() // stops the notification dispatcher
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}

	log.Println("server exited")
}

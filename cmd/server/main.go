package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/velardez/venue-pos/internal/config"   // Internal config loader
	"github.com/velardez/venue-pos/internal/database" // MySQL connection helper
	"github.com/velardez/venue-pos/internal/handler"
	"github.com/velardez/venue-pos/internal/qrimg"
	"github.com/velardez/venue-pos/internal/queue"
	"github.com/velardez/venue-pos/internal/repository"
	"github.com/velardez/venue-pos/internal/router" // Internal router setup
	"github.com/velardez/venue-pos/internal/service"
)

func main() {
	// Load .env if present; in production the environment is set by the
	// deployment, so a missing file is not an error.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the product cache and the redemption rate limiter.  Both
	// middlewares fail open, so a missing Redis only costs performance.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	stock := repository.NewStockRepo(db)
	orders := repository.NewOrderRepo(db)
	tickets := repository.NewTicketRepo(db)
	qrs := repository.NewQRRepo(db)
	tables := repository.NewTableRepo(db)
	comandas := repository.NewComandaRepo(db)
	store := repository.NewSQLStore(db)

	// Services.
	issuer := service.NewIssuer(cfg.AppSecret, cfg.QRTTLMin)
	fulfillment := service.NewFulfillment(store, issuer, qrimg.NewRenderer())
	redemption := service.NewRedemption(store, issuer)

	e := echo.New() // Create Echo instance

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterAPI(e, router.APIDeps{
		Products:  handler.NewProductHandler(products),
		Stock:     handler.NewStockHandler(stock, products),
		Orders:    handler.NewOrderHandler(orders, fulfillment),
		Tickets:   handler.NewTicketHandler(tickets, fulfillment),
		QR:        handler.NewQRHandler(redemption, qrs),
		Tables:    handler.NewTableHandler(tables),
		Comandas:  handler.NewComandaHandler(comandas, orders),
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
	})

	// Drain payment and redemption events into the activity log.  The
	// consumer reconnects on broker failures and never takes the API down.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

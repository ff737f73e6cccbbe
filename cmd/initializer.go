package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"kassaBack/internal/config"
	"kassaBack/internal/handlers"
	"kassaBack/internal/repositories"
	"kassaBack/internal/scheduler"
	"kassaBack/internal/services"
	"kassaBack/internal/telegram"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	cfg      config.Config
	db       *sql.DB

	bot             *telegram.Client
	botHandler      *handlers.BotHandler
	tokenAPIHandler *handlers.TokenAPIHandler
	scheduler       *scheduler.Scheduler
}

// appLogger adapts the paired loggers to the Infof/Errorf interfaces the
// services and the scheduler expect.
type appLogger struct {
	info *log.Logger
	err  *log.Logger
}

func (l appLogger) Infof(format string, args ...interface{})  { l.info.Printf(format, args...) }
func (l appLogger) Errorf(format string, args ...interface{}) { l.err.Printf(format, args...) }

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, errorLog, infoLog *log.Logger) *application {
	logger := appLogger{info: infoLog, err: errorLog}

	// Repositories
	consentRepo := repositories.ConsentRepository{DB: db}
	productRepo := repositories.ProductRepository{DB: db}
	orderRepo := repositories.OrderRepository{DB: db}
	receiptRepo := repositories.ReceiptRepository{DB: db}
	tokenRepo := repositories.TokenRepository{DB: db}
	invoiceRepo := repositories.InvoiceRequestRepository{DB: db}
	forwardSlot := repositories.NewForwardSlot(rdb)

	bot := telegram.NewClient(&http.Client{Timeout: cfg.Telegram.PollTimeout + 10*time.Second}, cfg.Telegram.Token)

	// Services
	pricingService := &services.PricingService{
		Products:    &productRepo,
		PromoActive: cfg.Promo.Active,
		PromoPrices: cfg.Promo.Prices,
	}
	consentService := &services.ConsentService{ConsentRepo: &consentRepo}
	tokenService := &services.TokenService{}
	redemptionService := &services.RedemptionService{TokenRepo: &tokenRepo}

	remindScheduler := scheduler.New(
		&orderRepo,
		&consentRepo,
		bot,
		logger,
		cfg.Reminders.OrderDelay,
		cfg.Promo.EndsAt,
		countdownOffsets(cfg.Reminders.CountdownHours),
	)

	orderService := &services.OrderService{
		OrderRepo:   &orderRepo,
		ReceiptRepo: &receiptRepo,
		Products:    &productRepo,
		Pricing:     pricingService,
		Consents:    consentService,
		Tokens:      tokenService,
		Notifier:    bot,
		Reminders:   remindScheduler,
		Logger:      logger,
		ReviewerID:  cfg.Telegram.ReviewerID,
		TokenTTL:    time.Duration(cfg.Tokens.TTLHours) * time.Hour,
	}
	invoiceService := &services.InvoiceService{
		RequestRepo: &invoiceRepo,
		Slot:        forwardSlot,
		Orders:      &orderRepo,
		Notifier:    bot,
		Logger:      logger,
		ReviewerID:  cfg.Telegram.ReviewerID,
	}

	// Handlers
	botHandler := &handlers.BotHandler{
		Orders:     orderService,
		Consents:   consentService,
		Invoices:   invoiceService,
		Client:     bot,
		Logger:     logger,
		ReviewerID: cfg.Telegram.ReviewerID,
		Payment: handlers.PaymentDetails{
			Phone:     cfg.Payment.Phone,
			Recipient: cfg.Payment.Recipient,
			Bank:      cfg.Payment.Bank,
		},
		Legal: handlers.LegalLinks{
			PolicyURL:     cfg.Legal.PolicyURL,
			OfferURL:      cfg.Legal.OfferURL,
			AdsConsentURL: cfg.Legal.AdsConsentURL,
		},
	}
	tokenAPIHandler := &handlers.TokenAPIHandler{Service: redemptionService}

	return &application{
		errorLog:        errorLog,
		infoLog:         infoLog,
		cfg:             cfg,
		db:              db,
		bot:             bot,
		botHandler:      botHandler,
		tokenAPIHandler: tokenAPIHandler,
		scheduler:       remindScheduler,
	}
}

func countdownOffsets(hours []int) []time.Duration {
	offsets := make([]time.Duration, 0, len(hours))
	for _, h := range hours {
		offsets = append(offsets, time.Duration(h)*time.Hour)
	}
	return offsets
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}

package main

import (
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"shop/internal/auth"
	"shop/internal/cart"
	"shop/internal/catalog"
	"shop/internal/db"
	"shop/internal/mailer"
	"shop/internal/payments"
	"shop/internal/ratelimiter"
	"shop/internal/store"
	"shop/internal/token"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "1.0.0"

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxOpenConns, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS"))
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_OPEN_CONNS: %v", err)
	}
	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		log.Fatalf("Invalid value for SMTP_PORT: %v", err)
	}
	redisDB := 0
	if val := os.Getenv("REDIS_DB"); val != "" {
		if redisDB, err = strconv.Atoi(val); err != nil {
			log.Fatalf("Invalid value for REDIS_DB: %v", err)
		}
	}

	var fallbackSecrets []string
	if raw := os.Getenv("TOKEN_FALLBACK_SECRETS"); raw != "" {
		fallbackSecrets = strings.Split(raw, ",")
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		db: dbConfig{
			addr:         os.Getenv("DB_ADDR"),
			maxOpenConns: maxOpenConns,
			maxIdleTime:  os.Getenv("DB_MAX_IDLE_TIME"),
		},
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       redisDB,
		},
		mail: mailConfig{
			fromEmail: os.Getenv("SMTP_FROM_EMAIL"),
			exp:       time.Hour * 24 * 2,
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     smtpPort,
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				accessTokenExp:  time.Hour * 24,
				refreshTokenExp: time.Hour * 24 * 7,
				iss:             "shop",
			},
		},
		payment: paymentConfig{
			apiBase:         os.Getenv("PAYMENT_API_BASE"),
			secretKey:       os.Getenv("PAYMENT_SECRET_KEY"),
			webhookSecret:   os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			orderTokenExp:   time.Hour * 24 * 2,
			tokenSecret:     os.Getenv("TOKEN_SECRET"),
			fallbackSecrets: fallbackSecrets,
		},
		rateLimiter: LoadRateLimiterConfig(),
		cartTTL:     time.Hour * 24 * 14,
		orderSalt:   os.Getenv("ORDER_NUMBER_SALT"),
	}

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	// Redis holds session carts
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redis.addr,
		Password: cfg.redis.password,
		DB:       cfg.redis.db,
	})
	defer rdb.Close()

	registry := catalog.NewRegistry()

	orderNumbers, err := store.NewOrderNumberGenerator(cfg.orderSalt)
	if err != nil {
		logger.Fatal(err)
	}

	storage := store.NewStorage(pool, registry, orderNumbers)

	carts := cart.NewSessionStore(rdb, cfg.cartTTL)

	cloudinaryURL := os.Getenv("CLOUDINARY_URL")
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		logger.Fatal(err)
	}

	smtpClient := mailer.NewSMTPClient(
		cfg.mail.fromEmail,
		cfg.mail.smtp.host,
		cfg.mail.smtp.port,
		cfg.mail.smtp.username,
		cfg.mail.smtp.password,
	)

	gateway := payments.NewBillingAdapter(cfg.payment.apiBase, cfg.payment.secretKey)

	// Separate key salts so an order confirmation token can never pass as an
	// account activation token.
	orderTokens := token.NewGenerator(cfg.payment.tokenSecret, cfg.payment.fallbackSecrets, "shop.orders", cfg.payment.orderTokenExp)
	accountTokens := token.NewGenerator(cfg.payment.tokenSecret, cfg.payment.fallbackSecrets, "shop.accounts", cfg.mail.exp)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
	)

	app := &application{
		config:        cfg,
		store:         storage,
		registry:      registry,
		carts:         carts,
		logger:        logger,
		cld:           cld,
		mailer:        smtpClient,
		gateway:       gateway,
		orderTokens:   orderTokens,
		accountTokens: accountTokens,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	// Metrics collected at /v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

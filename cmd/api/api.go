package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop/internal/auth"
	"shop/internal/cart"
	"shop/internal/catalog"
	"shop/internal/mailer"
	"shop/internal/payments"
	"shop/internal/ratelimiter"
	"shop/internal/store"
	"shop/internal/token"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	registry      *catalog.Registry
	carts         cart.Store
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	gateway       payments.Gateway
	orderTokens   *token.Generator
	accountTokens *token.Generator
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	db          dbConfig
	redis       redisConfig
	mail        mailConfig
	auth        authConfig
	payment     paymentConfig
	rateLimiter ratelimiter.Config
	cartTTL     time.Duration
	orderSalt   string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
}

type redisConfig struct {
	addr     string
	password string
	db       int
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
	// exp is the activation token lifetime quoted in the emails.
	exp time.Duration
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type basicConfig struct {
	user string
	pass string
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type paymentConfig struct {
	apiBase       string
	secretKey     string
	webhookSecret string
	// orderTokenExp bounds how long an order confirmation link stays valid.
	orderTokenExp time.Duration
	tokenSecret   string
	// fallbackSecrets keeps links issued before a key rotation working.
	fallbackSecrets []string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{productID}", app.getProductHandler)
			r.Get("/{productID}/variants/{variantID}", app.getVariantHandler)
			r.Post("/{productID}/ratings", app.addRatingHandler)

			// Admin surface
			r.Group(func(r chi.Router) {
				r.Use(app.BasicAuthMiddleware())
				r.Post("/", app.createProductHandler)
				r.Put("/{productID}", app.updateProductHandler)
				r.Delete("/{productID}", app.deleteProductHandler)
				r.Post("/{productID}/variants", app.createVariantHandler)
				r.Put("/{productID}/variants/{variantID}/availability", app.setVariantAvailabilityHandler)
				r.Delete("/{productID}/variants/{variantID}", app.deleteVariantHandler)
				r.Post("/{productID}/images", app.uploadProductImageHandler)
				r.Put("/{productID}/images/{imageID}/main", app.setMainImageHandler)
				r.Delete("/{productID}/images/{imageID}", app.deleteProductImageHandler)
			})
		})

		r.Get("/catalog/{category}", app.browseCategoryHandler)
		r.Route("/producers", func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())
			r.Get("/", app.listProducersHandler)
			r.Post("/", app.createProducerHandler)
			r.Put("/{producerID}", app.updateProducerHandler)
			r.Delete("/{producerID}", app.deleteProducerHandler)
		})
		r.Route("/colors", func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())
			r.Get("/", app.listColorsHandler)
			r.Post("/", app.createColorHandler)
			r.Delete("/{colorID}", app.deleteColorHandler)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", app.getCartHandler)
			r.Post("/items", app.addCartItemHandler)
			r.Delete("/items/{fullID}", app.removeCartItemHandler)
			r.Delete("/", app.clearCartHandler)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", app.checkoutHandler)
			r.Get("/confirm/{orderID}/{token}", app.confirmOrderHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Get("/", app.listMyOrdersHandler)
				r.Get("/{orderID}", app.getOrderHandler)
			})
		})

		r.Post("/webhooks/payments", app.paymentWebhookHandler)

		r.Put("/users/activate/{userID}/{token}", app.activateUserHandler)

		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/password-reset", app.requestPasswordResetHandler)
			r.Put("/password-reset", app.completePasswordResetHandler)
		})

		r.With(app.AuthTokenMiddleware).Post("/users/logout", app.logoutHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}

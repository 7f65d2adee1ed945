package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/softlink/pharmacy-pos/internal/config"
	"github.com/softlink/pharmacy-pos/internal/domain/patient"
	"github.com/softlink/pharmacy-pos/internal/domain/prescriber"
	"github.com/softlink/pharmacy-pos/internal/domain/prescription"
	"github.com/softlink/pharmacy-pos/internal/domain/product"
	"github.com/softlink/pharmacy-pos/internal/domain/register"
	"github.com/softlink/pharmacy-pos/internal/domain/sale"
	"github.com/softlink/pharmacy-pos/internal/domain/stocklot"
	"github.com/softlink/pharmacy-pos/internal/integration/etims"
	"github.com/softlink/pharmacy-pos/internal/integration/mpesa"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
	"github.com/softlink/pharmacy-pos/internal/platform/db"
	"github.com/softlink/pharmacy-pos/internal/platform/metrics"
	"github.com/softlink/pharmacy-pos/internal/platform/middleware"
	"github.com/softlink/pharmacy-pos/internal/platform/sequence"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pharmacy-server",
		Short: "Pharmacy POS API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pharmacy API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	var dir string
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			applied, err := migrator.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migrations\n", applied)
			return nil
		},
	}
	upCmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	}
	statusCmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	m := metrics.New(prometheus.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	seq := sequence.NewPG(pool)

	// Repositories
	patientRepo := patient.NewRepoPG(pool)
	prescriberRepo := prescriber.NewRepoPG(pool)
	productRepo := product.NewRepoPG(pool)
	prescriptionRepo := prescription.NewRepoPG(pool)
	lotRepo := stocklot.NewRepoPG(pool)
	registerRepo := register.NewRepoPG(pool)
	saleRepo := sale.NewRepoPG(pool)
	invoiceRepo := etims.NewRepoPG(pool)

	// Services
	patientSvc := patient.NewService(patientRepo)
	prescriberSvc := prescriber.NewService(prescriberRepo)
	productSvc := product.NewService(productRepo)
	prescriptionSvc := prescription.NewService(prescriptionRepo, patientRepo, prescriberRepo, seq, cfg.PrescriptionValidityDays)
	lotSvc := stocklot.NewService(lotRepo)
	registerSvc := register.NewService(registerRepo)

	saleSvc := sale.NewService(saleRepo, productRepo, patientRepo, prescriberRepo,
		prescriptionSvc, lotRepo, registerSvc, seq, pool, cfg.BlockExpiredLots, logger)
	saleSvc.SetMetrics(m)

	etimsClient := etims.NewClient(etims.Config{
		PIN:               cfg.KRAPin,
		VATNumber:         cfg.KRAVatNumber,
		ControlUnitSerial: cfg.KRAControlUnit,
		APIBaseURL:        cfg.KRAAPIBaseURL,
		Username:          cfg.KRAUsername,
		Password:          cfg.KRAPassword,
		Environment:       cfg.KRAEnvironment,
	}, seq, invoiceRepo, logger)
	etimsClient.SetMetrics(m)
	saleSvc.SetInvoicer(etimsClient)

	mpesaClient := mpesa.NewClient(mpesa.Config{
		Shortcode:      cfg.MpesaShortcode,
		ConsumerKey:    cfg.MpesaConsumerKey,
		ConsumerSecret: cfg.MpesaConsumerSecret,
		Passkey:        cfg.MpesaPasskey,
		Environment:    cfg.MpesaEnvironment,
		CallbackURL:    cfg.MpesaCallbackURL,
	}, logger)
	mpesaClient.SetMetrics(m)

	// Routes
	apiV1 := e.Group("/api/v1")
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	prescriber.NewHandler(prescriberSvc).RegisterRoutes(apiV1)
	product.NewHandler(productSvc).RegisterRoutes(apiV1)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(apiV1)
	stocklot.NewHandler(lotSvc).RegisterRoutes(apiV1)
	register.NewHandler(registerSvc).RegisterRoutes(apiV1)
	sale.NewHandler(saleSvc).RegisterRoutes(apiV1)
	mpesa.NewHandler(mpesaClient, saleSvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", metrics.Handler())

	// Expiry sweep: prescriptions past their validity window move to expired.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go expireSweep(sweepCtx, prescriptionSvc, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func expireSweep(ctx context.Context, svc *prescription.Service, logger zerolog.Logger) {
	run := func() {
		n, err := svc.MarkExpired(ctx, time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("prescription expiry sweep failed")
			return
		}
		if n > 0 {
			logger.Info().Int("count", n).Msg("prescriptions marked expired")
		}
	}

	run()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// Package main is the entry point for the Privé Club loyalty service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prive-club/internal/config"
	"prive-club/internal/handler"
	"prive-club/internal/job"
	"prive-club/internal/loyalty"
	"prive-club/internal/notifier"
	"prive-club/internal/pkg/db"
	"prive-club/internal/pkg/lock"
	"prive-club/internal/repository"
	"prive-club/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Apply schema and seed the default tier table and rules
	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	if err := db.SeedDefaults(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed defaults")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	ruleRepo := repository.NewRuleRepository(dbPool.Pool)
	tierRepo := repository.NewTierRepository(dbPool.Pool)
	rewardRepo := repository.NewRewardRepository(dbPool.Pool)
	campaignRepo := repository.NewCampaignRepository(dbPool.Pool)
	appointmentRepo := repository.NewAppointmentRepository(dbPool.Pool)

	// Per-account lock: Redis when configured for multi-instance
	// deployments, in-process otherwise
	var locker lock.Locker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		locker = lock.NewRedisLock(redisClient, 30*time.Second, cfg.Loyalty.LockTimeout)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis account lock")
	} else {
		locker = lock.NewAccountLock(cfg.Loyalty.LockTimeout)
		log.Info().Msg("Using in-process account lock")
	}

	// Referral code generator
	codes, err := loyalty.NewCodeGenerator(cfg.Referral.Salt, cfg.Referral.MinLength)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create referral code generator")
	}

	// Initialize services
	loyaltyService := service.NewLoyaltyService(accountRepo, ledgerRepo, ruleRepo, tierRepo, campaignRepo, locker, cfg.Loyalty)
	accountService := service.NewAccountService(accountRepo, codes, loyaltyService)
	redemptionService := service.NewRedemptionService(accountRepo, rewardRepo, ledgerRepo, locker)
	appointmentService := service.NewAppointmentService(appointmentRepo, accountRepo, loyaltyService)
	membershipService := service.NewMembershipService(accountRepo, tierRepo)
	adminService := service.NewAdminService(ruleRepo, tierRepo, rewardRepo, campaignRepo)

	// Staff notifications over Telegram, or a no-op when not configured
	var notify notifier.Notifier = notifier.Nop{}
	if cfg.Notifier.Enabled {
		telegram, err := notifier.NewTelegram(&cfg.Notifier)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create telegram notifier")
		}
		notify = telegram
		log.Info().Int64("chat_id", cfg.Notifier.AdminChatID).Msg("Telegram notifier enabled")
	}

	// Background near-upgrade digest
	digestJob := job.NewNearUpgradeJob(membershipService, notify, cfg.Loyalty.NearUpgradeFraction, cfg.Loyalty.NearUpgradeInterval)
	digestJob.Start()
	defer digestJob.Stop()

	// HTTP server
	router := handler.SetupRouter(&handler.Dependencies{
		Accounts:     accountService,
		Loyalty:      loyaltyService,
		Redemptions:  redemptionService,
		Appointments: appointmentService,
		Membership:   membershipService,
		Admin:        adminService,
		Notifier:     notify,
		HealthCheck: func(c *gin.Context) {
			if err := dbPool.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		},
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

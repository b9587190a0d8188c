package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hr-leave-bot/internal/api"
	"hr-leave-bot/internal/config"
	"hr-leave-bot/internal/database"
	"hr-leave-bot/internal/handler"
	"hr-leave-bot/internal/repository"
	"hr-leave-bot/internal/service"
	"hr-leave-bot/pkg/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logrus.Info("Config initialized...")

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	store, err := repository.NewStore(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create repositories")
	}

	ledger := service.NewLedgerService(store, logger)
	employees := service.NewEmployeeService(store, cfg.DefaultVacationBalance, cfg.DefaultEmergencyBalance, logger)
	departments := service.NewDepartmentService(store, logger)
	absences := service.NewAbsenceService(store, logger)
	maintenance := service.NewMaintenanceService(store, cfg.DefaultEmergencyBalance, logger)
	transfer := service.NewTransferService(employees, absences, logger)
	vacations := service.NewVacationService(
		store,
		ledger,
		repository.ConflictPolicy{CancelledBlocks: cfg.CancelledBlocksConflicts},
		logger,
	)

	if err := departments.SeedDefaults(); err != nil {
		logger.WithError(err).Fatal("Failed to seed departments")
	}

	scheduler := service.NewResetScheduler(maintenance, cfg.ResetCheckInterval, logger)

	var client *telegram.Client
	if cfg.BotEnabled() {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.BotDebug)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram client")
		}
		logger.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(client, employees, departments, vacations, absences, ledger, cfg, logger)
		vacations.SetNotifier(botHandler)
		scheduler.OnReset(func() {
			botHandler.NotifyManager("🔄 تم تصفير رصيد الإجازات العارضة للعام الجديد.")
		})

		go botHandler.HandleUpdates(client.Updates())
		logger.Info("Bot started")
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, running the HTTP API only")
	}

	scheduler.Start()

	apiHandler := api.NewHandler(api.Services{
		Employees:   employees,
		Departments: departments,
		Vacations:   vacations,
		Absences:    absences,
		Ledger:      ledger,
		Maintenance: maintenance,
		Transfer:    transfer,
	}, logger)
	if cfg.APIToken == "" {
		logger.WithField("addr", cfg.HTTPAddr).Warn("API_TOKEN is not set, the HTTP API accepts unauthenticated requests")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(apiHandler, cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Service started. Press Ctrl+C to stop.")
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}

	if client != nil {
		client.Stop()
	}
	scheduler.Stop()

	if err := database.Close(db); err != nil {
		logger.WithError(err).Warn("Error closing database")
	}

	logger.Info("Service stopped gracefully")
}

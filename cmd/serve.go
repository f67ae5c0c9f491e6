package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/fleet-registry/config"
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/handler"
	"github.com/Payphone-Digital/fleet-registry/internal/middleware"
	"github.com/Payphone-Digital/fleet-registry/internal/router"
	"github.com/Payphone-Digital/fleet-registry/pkg/health"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

const healthInterval = 30 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create tables and indexes before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger.GetLogger().Info("Application starting",
		zap.String("app_name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("version", constants.AppVersion),
		zap.String("store", cfg.Store.Driver),
	)

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.Timeout)
		defer cancel()
		svc.close(closeCtx)
	}()

	if migrate {
		if err := svc.backend.migrate(ctx); err != nil {
			return err
		}
		logger.GetLogger().Info("Store migrated successfully")
	}

	if cfg.App.AdminEmail != "" && cfg.App.AdminPassword != "" {
		if _, err := svc.auth.SeedAdmin(ctx, "admin", cfg.App.AdminPassword); err != nil {
			logger.GetLogger().Warn("Failed to seed admin account", zap.Error(err))
		}
	}

	monitor := health.NewMonitor(healthInterval, logger.GetLogger())
	svc.registerProbes(monitor)
	monitor.Start()
	defer monitor.Stop()

	if cfg.Health.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.Health.GRPCPort)
		if err != nil {
			return err
		}
		grpcServer := monitor.ServeGRPC(lis)
		defer grpcServer.GracefulStop()
		logger.GetLogger().Info("gRPC health server started", zap.String("port", cfg.Health.GRPCPort))
	}

	engine := router.NewRouter(router.Handlers{
		Vehicles: handler.NewVehicleHandler(svc.vehicles),
		Drivers:  handler.NewDriverHandler(svc.drivers),
		Tasks:    handler.NewTaskHandler(svc.tasks),
		Trips:    handler.NewTripHandler(svc.trips),
		Users:    handler.NewUserHandler(svc.users),
		Auth:     handler.NewAuthHandler(svc.auth),
		Health:   handler.NewHealthHandler(monitor),
	}, middleware.NewAuthMiddleware(svc.auth), svc.metrics, cfg).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", cfg.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			logger.GetLogger().Error("Failed to start server", zap.Error(err), zap.String("port", cfg.App.Port))
			return err
		}
	case sig := <-quit:
		logger.GetLogger().Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.Timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.GetLogger().Info("Server exited")
	return nil
}

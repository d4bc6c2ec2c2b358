package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/config"
	"github.com/rcliao/synapse/internal/observe"
	"github.com/rcliao/synapse/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Serve the memory over HTTP with Prometheus metrics and a periodic " +
			"consolidation scheduler. Shutdown runs a final consolidation so nothing " +
			"promotable is lost.",
		Run: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	// .env is optional; absence is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	addr := cfg.Server.GetAddr()
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	obs := observe.NewProduction()
	defer obs.Close()
	log := obs.Log()

	m, err := openManagerWith(cmd.Context(), cfg, log)
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	srv := server.New(m, obs)
	sched, err := server.NewScheduler(srv, cfg.Server.GetConsolidateInterval(), log)
	if err != nil {
		exitErr("create scheduler", err)
	}
	sched.Start()

	go func() {
		if err := srv.Listen(addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("synapse serving",
		zap.String("addr", addr),
		zap.String("db", getStorePath(cfg)),
		zap.Duration("consolidate_interval", cfg.Server.GetConsolidateInterval()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	// Final consolidation: the working set only survives through promotion.
	if _, err := srv.Consolidate(context.Background()); err != nil {
		log.Error("final consolidation failed", zap.Error(err))
	}
}

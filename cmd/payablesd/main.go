package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/payables-tracker/internal/app"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/server"
)

func main() {
	_ = godotenv.Load()

	// Logger
	zlog, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = zlog.Sync() }()
	log := zlog.Sugar()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	for _, lm := range a.Chain.Models(ctx) {
		log.Infow("llm link", "provider", lm.Provider, "model", lm.Model)
	}

	// gRPC server
	grpcServer, hs := server.NewGRPCServer(a.Service(zlog), zlog)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.Server.GRPCAddr, err)
	}
	log.Infof("gRPC serving on %s", lis.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(lis) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Errorw("grpc serve", "error", err)
		}
	}

	log.Info("shutting down...")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	log.Info("stopped")
}

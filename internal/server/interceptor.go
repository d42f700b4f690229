package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// RequestIDHeader is read from incoming metadata and echoed back.
const RequestIDHeader = "x-request-id"

// requestLogger tags each call with a request ID and logs its outcome.
func requestLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
				ctx = common.WithRequestID(ctx, v[0])
			}
		}
		ctx, rid := common.EnsureRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, rid))

		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("req_id", rid),
			zap.Stringer("code", status.Code(err)),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		}
		if err != nil {
			logger.Warn("grpc.request.failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc.request.ok", fields...)
		}
		return resp, err
	}
}

// NewGRPCServer builds a server carrying the payables service, the health
// service and reflection. The returned health server starts SERVING.
func NewGRPCServer(svc PayablesServer, logger *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(requestLogger(logger)))
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)
	RegisterPayablesServer(s, svc)
	return s, hs
}

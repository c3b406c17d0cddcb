// Package grpchealth exposes the standard gRPC health service for the
// predictor, for orchestrators that probe over gRPC rather than HTTP.
package grpchealth

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name health clients ask about.
const ServiceName = "predictor"

// Server wraps a grpc.Server carrying only health and reflection.
type Server struct {
	*grpc.Server
	health *health.Server
}

// New builds the server. The predictor starts NOT_SERVING; call
// MarkServing once the artifacts are loaded.
func New(logger *zap.Logger) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger)),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// gRPC reflection (for grpcurl and Evans)
	reflection.Register(gs)

	return &Server{Server: gs, health: hs}
}

// MarkServing reports the predictor as SERVING.
func (s *Server) MarkServing() {
	s.health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
}

// Stop flips every service to NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.GracefulStop()
}

// loggingInterceptor returns a gRPC unary server interceptor that logs each call.
func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

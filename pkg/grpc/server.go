// Package grpc runs the gRPC side of the service: the standard
// grpc.health.v1.Health service driven by a database probe, plus reflection.
//
// Every unary call goes through recovery, logging and Prometheus
// interceptors.
//
//	srv := grpc.New(repo.Ping, 15*time.Second)
//	go srv.Serve(ctx, lis)
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/kleptokart/kleptokart/pkg/logger"
	"github.com/kleptokart/kleptokart/pkg/metrics"
)

// ServiceName is the health service name clients can query besides "".
const ServiceName = "kleptokart.Listings"

// ProbeFunc reports whether the backing store is reachable.
type ProbeFunc func(ctx context.Context) error

// ─── Interceptors ─────────────────────────────────────────────────────────────

// recoveryInterceptor turns handler panics into INTERNAL errors.
func recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// loggingInterceptor logs each unary RPC with its duration and code.
func loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	logger.WithCtx(ctx).Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", status.Code(err).String(),
	)
	return resp, err
}

// metricsInterceptor records handled counts and latency per RPC.
func metricsInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	metrics.GRPCHandled.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	metrics.GRPCHandling.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	return resp, err
}

// ─── Server ───────────────────────────────────────────────────────────────────

// Server is a gRPC server whose health status follows probe.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	probe    ProbeFunc
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// New builds the server. probe runs once immediately on Serve and then
// every interval; a nil probe reports SERVING unconditionally.
func New(probe ProbeFunc, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor,
			loggingInterceptor,
			metricsInterceptor,
		),
		grpc.MaxRecvMsgSize(4*1024*1024), // 4 MB
		grpc.MaxSendMsgSize(4*1024*1024), // 4 MB
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)

	// grpcurl and friends work without proto files.
	reflection.Register(srv)

	return &Server{
		srv:      srv,
		health:   hs,
		probe:    probe,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Listen opens a TCP listener on ":port".
func Listen(port string) (net.Listener, error) {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	return lis, nil
}

// Serve blocks serving lis until Stop is called. The health probe loop
// runs until ctx is done or the server stops.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go s.watch(ctx)

	slog.Info("gRPC server starting", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc: serve: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and waits for in-flight RPCs.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		slog.Info("gRPC server shutting down")
		s.health.Shutdown()
		s.srv.GracefulStop()
	})
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.probe(probeCtx)
		cancel()
		if err != nil {
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			logger.L.Warn("grpc: health probe failed", "error", err)
		}
	}
	s.setStatus(st)
}

func (s *Server) setStatus(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	select {
	case <-s.done:
		return
	default:
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

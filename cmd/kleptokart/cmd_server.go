package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kleptokart/kleptokart/config"
	"github.com/kleptokart/kleptokart/internal/kernel"
	"github.com/kleptokart/kleptokart/internal/server"
	"github.com/kleptokart/kleptokart/pkg/cache"
	"github.com/kleptokart/kleptokart/pkg/database"
	"github.com/kleptokart/kleptokart/pkg/grpc"
	"github.com/kleptokart/kleptokart/pkg/logger"
	"github.com/kleptokart/kleptokart/pkg/migration"
)

// kleptokart serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return err
	}

	closeLog := configureLogging()
	defer closeLog()

	db, err := database.Open(ctx, database.OptionsFromConfig())
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if config.AutoMigrate() {
		ran, err := migration.New(db).Run(ctx)
		if err != nil {
			return err
		}
		for _, name := range ran {
			logger.Info("migrated", "migration", name)
		}
	}

	counter, closeCounter := rateLimitCounter(ctx)
	defer closeCounter()

	k, err := kernel.New(kernel.Deps{
		DB:             db,
		Counter:        counter,
		RateLimit:      config.RateLimitPerMinute(),
		CORSOrigins:    config.CORSOrigins(),
		TrustedProxies: config.TrustedProxies(),
	})
	if err != nil {
		return err
	}

	httpLis, err := net.Listen("tcp", ":"+config.AppPort())
	if err != nil {
		return fmt.Errorf("http: listen on :%s: %w", config.AppPort(), err)
	}

	opts := server.Options{
		Handler:         k.Handler(),
		HTTPListener:    httpLis,
		ShutdownTimeout: config.ShutdownTimeout(),
	}

	if port := config.GRPCPort(); port != "" {
		grpcLis, err := grpc.Listen(port)
		if err != nil {
			_ = httpLis.Close()
			return err
		}
		opts.GRPC = grpc.New(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}, config.HealthCheckInterval())
		opts.GRPCListener = grpcLis
	}

	logger.Info("kleptokart starting", "env", config.AppEnv(), "addr", httpLis.Addr().String())
	return server.Run(ctx, opts)
}

// configureLogging rebuilds the base logger and, when LOG_MONGO_URI is set,
// fans records out to MongoDB too. The returned func flushes the sink.
func configureLogging() func() {
	uri := config.LogMongoURI()
	if uri == "" {
		logger.Configure(os.Stdout, config.AppEnv(), config.LogLevel())
		return func() {}
	}

	mh, err := logger.NewMongoHandler(uri, config.LogMongoDB(), config.LogMongoCollection(), slog.LevelWarn)
	if err != nil {
		logger.Configure(os.Stdout, config.AppEnv(), config.LogLevel())
		logger.Warn("mongo log sink disabled", "error", err)
		return func() {}
	}

	logger.Configure(os.Stdout, config.AppEnv(), config.LogLevel(), mh)
	return func() { _ = mh.Close() }
}

// rateLimitCounter prefers Redis so limits hold across replicas, and falls
// back to process memory when Redis is unreachable.
func rateLimitCounter(ctx context.Context) (cache.Counter, func()) {
	if config.RateLimitPerMinute() <= 0 {
		return nil, func() {}
	}

	rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		logger.Warn("redis unavailable, rate limiting in memory", "addr", config.RedisAddr(), "error", err)
		return cache.NewMemoryCounter(), func() {}
	}
	return cache.NewRedisCounter(rdb, "kleptokart:"), closer(rdb)
}

func closer(rdb *redis.Client) func() {
	return func() { _ = rdb.Close() }
}

// kleptokart route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := kernel.New(kernel.Deps{})
		if err != nil {
			return err
		}
		return printRoutes(cmd.OutOrStdout(), k)
	},
}

func printRoutes(out io.Writer, k *kernel.HTTPKernel) error {
	infos := k.Routes()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No named routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/blockloom"
	httpAdapter "github.com/aretw0/blockloom/internal/adapters/http"
	"github.com/aretw0/blockloom/internal/logging"
	"github.com/aretw0/blockloom/internal/presentation/tui"
	"github.com/aretw0/blockloom/pkg/adapters/memory"
	"github.com/aretw0/blockloom/pkg/adapters/redis"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type rootCreator interface {
	ports.BlockStore
	CreateRoot(ctx context.Context) (string, error)
}

// memoryRoots adapts the in-memory store to the context-aware root creator.
type memoryRoots struct{ *memory.Store }

func (m memoryRoots) CreateRoot(context.Context) (string, error) {
	return m.Store.CreateRoot(), nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a local sandbox of the block API",
	Long: `Serves the block children API backed by memory or Redis, enforcing the same
sibling and depth limits as the remote service. Go runtime metrics are exposed
on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Sandbox.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("backend") {
			cfg.Sandbox.Backend, _ = cmd.Flags().GetString("backend")
		}
		roots, _ := cmd.Flags().GetInt("roots")

		level, _ := cfg.Level()
		log := logging.New(level, logging.WithJSON())

		var store rootCreator
		switch cfg.Sandbox.Backend {
		case "redis":
			rs := redis.New(cfg.Sandbox.RedisAddr, "", 0, redis.WithPageSize(cfg.PageSize))
			defer rs.Close()
			store = rs
		case "memory":
			store = memoryRoots{memory.NewStore(memory.WithPageSize(cfg.PageSize))}
		default:
			return fmt.Errorf("unknown backend %q", cfg.Sandbox.Backend)
		}

		for i := 0; i < roots; i++ {
			id, err := store.CreateRoot(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create root: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "root %s\n", id)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		handler := httpAdapter.NewHandler(store,
			httpAdapter.WithToken(cfg.Sandbox.Token),
			httpAdapter.WithLogger(log),
			httpAdapter.WithVersion(blockloom.Version),
		)
		handler.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		srv := &http.Server{
			Addr:              cfg.Sandbox.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(os.Stderr)
			log.Info("sandbox listening", "addr", srv.Addr, "backend", cfg.Sandbox.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			log.Info("sandbox stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("backend", "memory", "Storage backend: memory or redis")
	serveCmd.Flags().Int("roots", 1, "Number of empty root blocks to create at startup")
}

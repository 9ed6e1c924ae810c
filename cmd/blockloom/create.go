package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/blockloom"
	"github.com/aretw0/blockloom/internal/planner"
	"github.com/aretw0/blockloom/internal/presentation/graph"
	"github.com/aretw0/blockloom/internal/presentation/tui"
	httpclient "github.com/aretw0/blockloom/pkg/adapters/http"
	"github.com/aretw0/blockloom/pkg/adapters/memory"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/observability"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [<parent-id>=]<document>...",
	Short: "Write documents as children of existing blocks",
	Long: `Compiles each document and appends it under its parent block.

A bare document is written under --parent. Several "<parent-id>=<document>"
pairs are written concurrently, at most "concurrency" at once.

With --sandbox the documents are written to an in-memory store and the
resulting tree is printed as markdown, without contacting the endpoint.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		sandbox, _ := cmd.Flags().GetBool("sandbox")
		tolerant, _ := cmd.Flags().GetBool("tolerant")
		showGraph, _ := cmd.Flags().GetBool("graph")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		if cmd.Flags().Changed("endpoint") {
			cfg.Endpoint, _ = cmd.Flags().GetString("endpoint")
		}

		var (
			store ports.BlockStore
			mem   *memory.Store
		)
		if sandbox {
			mem = memory.NewStore()
			store = mem
			if parent == "" {
				parent = mem.CreateRoot()
			}
		} else {
			store = httpclient.NewClient(cfg.Endpoint,
				httpclient.WithToken(cfg.Token),
				httpclient.WithAPIVersion(cfg.APIVersion),
				httpclient.WithTimeout(time.Duration(cfg.Timeout)),
			)
		}

		jobs, err := parseJobs(args, parent, mem)
		if err != nil {
			return err
		}

		hooks := observability.LoggingHooks(logger)
		if metricsAddr != "" {
			stop, metricHooks, err := serveMetrics(metricsAddr)
			if err != nil {
				return err
			}
			defer stop()
			hooks = observability.Combine(hooks, metricHooks)
		}

		opts := []blockloom.Option{
			blockloom.WithLogger(logger),
			blockloom.WithLifecycleHooks(hooks),
			blockloom.WithRetryPolicy(cfg.RetryPolicy()),
			blockloom.WithPageSize(cfg.PageSize),
			blockloom.WithConcurrency(cfg.Concurrency),
		}
		if tolerant {
			opts = append(opts, blockloom.WithErrorPolicy(planner.Tolerate(logger)))
		}
		w := blockloom.New(store, opts...)
		out := cmd.OutOrStdout()

		if len(jobs) == 1 && showGraph {
			return createWithGraph(cmd, w, jobs[0], out)
		}

		results, err := w.CreateAll(cmd.Context(), jobs)
		for i, res := range results {
			if res != nil {
				fmt.Fprintf(out, "%s: %d calls, %d blocks, %d retries\n", jobs[i].ParentID, res.Calls, len(res.Created), res.Retries)
			}
		}
		if err != nil {
			return err
		}

		if mem != nil {
			return printSandbox(out, mem, jobs)
		}
		return nil
	},
}

// parseJobs maps arguments to jobs. A nil sandbox means parent ids must be
// given; with a sandbox, parents named in pairs are created on demand.
func parseJobs(args []string, parent string, mem *memory.Store) ([]blockloom.Job, error) {
	roots := map[string]string{}
	jobs := make([]blockloom.Job, 0, len(args))

	for _, arg := range args {
		target, doc, paired := strings.Cut(arg, "=")
		if !paired {
			doc, target = arg, parent
		}
		if target == "" {
			return nil, fmt.Errorf("%s: no parent id (use --parent or <parent-id>=<document>)", arg)
		}
		if mem != nil && paired {
			if _, ok := roots[target]; !ok {
				roots[target] = mem.CreateRoot()
			}
			target = roots[target]
		}

		content, err := loadDocument(doc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, blockloom.Job{ParentID: target, Content: content})
	}
	return jobs, nil
}

func createWithGraph(cmd *cobra.Command, w *blockloom.Writer, job blockloom.Job, out io.Writer) error {
	plan, err := w.Plan(cmd.Context(), job.Content)
	if err != nil {
		return err
	}

	res, err := w.Execute(cmd.Context(), job.ParentID, plan)
	overlay := &graph.Overlay{Failed: -1}
	if res != nil {
		overlay.Applied = res.Calls
	}
	var execErr *blockloom.ExecutionError
	if errors.As(err, &execErr) {
		overlay.Failed = execErr.Entry
	}

	fmt.Fprint(out, graph.GenerateMermaid(plan, overlay))
	return err
}

// serveMetrics exposes write metrics on addr for the duration of the command.
func serveMetrics(addr string) (func(), domain.LifecycleHooks, error) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, domain.LifecycleHooks{}, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, domain.LifecycleHooks{}, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return stop, m.Hooks(), nil
}

func printSandbox(out io.Writer, mem *memory.Store, jobs []blockloom.Job) error {
	seen := map[string]bool{}
	for _, job := range jobs {
		if seen[job.ParentID] {
			continue
		}
		seen[job.ParentID] = true

		blocks, err := mem.Snapshot(job.ParentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n--- %s ---\n%s", job.ParentID, tui.Markdown(blocks))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().String("parent", "", "Parent block id for bare documents")
	createCmd.Flags().String("endpoint", "", "API base URL (overrides the configuration)")
	createCmd.Flags().Bool("sandbox", false, "Write to an in-memory store instead of the endpoint")
	createCmd.Flags().Bool("tolerant", false, "Drop invalid content with a warning instead of failing")
	createCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address while writing")
	createCmd.Flags().Bool("graph", false, "Print the executed plan as a Mermaid diagram with progress")
}

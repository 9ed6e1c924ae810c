package blockloom

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/blockloom/internal/logging"
	"github.com/aretw0/blockloom/internal/planner"
	"github.com/aretw0/blockloom/internal/runtime"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/flatten"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/aretw0/blockloom/pkg/retry"
)

// Version is the library version reported by the CLI and the sandbox server.
const Version = "0.1.0"

// DefaultConcurrency bounds the number of jobs CreateAll runs at once.
const DefaultConcurrency = 4

type (
	// Result summarizes one Create invocation.
	Result = runtime.Result
	// ExecutionError reports a Create that stopped after a prefix of its plan.
	ExecutionError = runtime.ExecutionError
)

// Job is one independent Create invocation for CreateAll.
type Job struct {
	ParentID string
	Content  []domain.FlexibleBlock
}

// Writer is the high-level entry point of the library. It is safe for
// concurrent use: every Create builds its own executor.
type Writer struct {
	store       ports.BlockStore
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	retry       retry.Policy
	errPolicy   domain.ErrorPolicy
	pageSize    int
	concurrency int
}

// Option defines a functional option for configuring the Writer.
type Option func(*Writer)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Writer) {
		w.hooks = hooks
	}
}

// WithRetryPolicy replaces the default backoff policy (retry.Default).
func WithRetryPolicy(p retry.Policy) Option {
	return func(w *Writer) {
		if p != nil {
			w.retry = p
		}
	}
}

// WithErrorPolicy sets how structural errors in the content are handled.
// The default, domain.FailFast, rejects the whole invocation before any call.
func WithErrorPolicy(policy domain.ErrorPolicy) Option {
	return func(w *Writer) {
		if policy != nil {
			w.errPolicy = policy
		}
	}
}

// WithPageSize sets the page size used when listing existing children.
func WithPageSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.pageSize = n
		}
	}
}

// WithConcurrency bounds the number of jobs CreateAll runs in parallel.
func WithConcurrency(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// New creates a Writer backed by store.
func New(store ports.BlockStore, opts ...Option) *Writer {
	w := &Writer{
		store:       store,
		logger:      logging.NewNop(),
		retry:       retry.Default(),
		errPolicy:   domain.FailFast,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Plan flattens content and computes the calls that would materialize it.
// No remote call is made.
func (w *Writer) Plan(ctx context.Context, content []domain.FlexibleBlock) (*domain.Plan, error) {
	blocks := flatten.ToBlocks(content)
	plan, err := planner.Build(blocks, planner.WithErrorPolicy(w.errPolicy))
	if err != nil {
		return nil, fmt.Errorf("failed to plan content: %w", err)
	}

	if w.hooks.OnPlanBuilt != nil {
		w.hooks.OnPlanBuilt(ctx, &domain.PlanEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPlanBuilt},
			Calls:     plan.Calls(),
			Nodes:     plan.Nodes(),
		})
	}
	w.logger.Debug("plan built", "calls", plan.Calls(), "nodes", plan.Nodes())
	return plan, nil
}

// Create appends content as new children of parentID. Existing children of the
// parent are left in place; the new blocks follow them.
func (w *Writer) Create(ctx context.Context, parentID string, content []domain.FlexibleBlock) (*Result, error) {
	plan, err := w.Plan(ctx, content)
	if err != nil {
		return nil, err
	}
	return w.Execute(ctx, parentID, plan)
}

// Execute runs a plan built by Plan under parentID.
func (w *Writer) Execute(ctx context.Context, parentID string, plan *domain.Plan) (*Result, error) {
	opts := []runtime.Option{
		runtime.WithLogger(w.logger.With("parent", parentID)),
		runtime.WithLifecycleHooks(w.hooks),
		runtime.WithRetryPolicy(w.retry),
	}
	if w.pageSize > 0 {
		opts = append(opts, runtime.WithPageSize(w.pageSize))
	}
	return runtime.NewExecutor(w.store, parentID, opts...).Execute(ctx, plan)
}

// CreateAll runs independent jobs concurrently, at most the configured
// concurrency at once. Results are indexed like jobs. The first failure
// cancels the jobs that have not finished; their results may be partial.
func (w *Writer) CreateAll(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := w.Create(gctx, job.ParentID, job.Content)
			results[i] = res
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.ParentID, err)
			}
			return nil
		})
	}

	return results, g.Wait()
}

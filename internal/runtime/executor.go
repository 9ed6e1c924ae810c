package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/blockloom/internal/logging"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/aretw0/blockloom/pkg/retry"
)

// node is one arena slot. children holds arena indices and is only
// meaningful once known is set.
type node struct {
	id       string
	children []int
	known    bool
}

// Result summarizes an execution.
type Result struct {
	Calls   int      // append calls that succeeded
	Created []string // ids of every top-level unit created, in plan order
	Retries int      // transient failures that were retried
}

// ExecutionError reports a failed execution. Entries [0, Completed) were
// applied remotely; Entry is the index of the entry that failed. Applied
// entries are not rolled back.
type ExecutionError struct {
	Entry     int
	Completed int
	Path      domain.Path
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plan entry %d at %s failed after %d applied: %v", e.Entry, e.Path, e.Completed, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs plans under one target node. It is not safe for concurrent use;
// build one Executor per invocation.
type Executor struct {
	store    ports.BlockStore
	policy   retry.Policy
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	pageSize int

	nodes   []node
	retries int
}

// Option configures an Executor.
type Option func(*Executor)

// WithRetryPolicy replaces the default exponential backoff policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithPageSize sets the page size used when listing remote children.
func WithPageSize(n int) Option {
	return func(e *Executor) {
		e.pageSize = n
	}
}

// NewExecutor creates an executor targeting rootID. The root's children start
// known and empty.
func NewExecutor(store ports.BlockStore, rootID string, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		policy: retry.Default(),
		logger: logging.NewNop(),
		nodes:  []node{{id: rootID, known: true}},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveID returns the remote id of the node at path.
func (e *Executor) ResolveID(ctx context.Context, path domain.Path) (string, error) {
	idx, err := e.resolve(ctx, path)
	if err != nil {
		return "", err
	}
	return e.nodes[idx].id, nil
}

func (e *Executor) resolve(ctx context.Context, path domain.Path) (int, error) {
	cur := 0
	for depth, i := range path {
		if err := e.discover(ctx, cur); err != nil {
			return 0, err
		}
		children := e.nodes[cur].children
		if i < 0 || i >= len(children) {
			return 0, fmt.Errorf("%w: index %d under %s (%d children)", domain.ErrPathNotFound, i, path[:depth], len(children))
		}
		cur = children[i]
	}
	return cur, nil
}

// discover lists a node's remote children once, following every cursor.
func (e *Executor) discover(ctx context.Context, idx int) error {
	if e.nodes[idx].known {
		return nil
	}
	parentID := e.nodes[idx].id

	var (
		cursor   string
		children []int
	)
	for {
		var page *domain.ChildPage
		err := e.withRetry(ctx, "list", func(ctx context.Context) error {
			var err error
			page, err = e.store.ListChildren(ctx, parentID, cursor, e.pageSize)
			return err
		})
		if e.hooks.OnList != nil {
			ev := &domain.ListEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventList},
				ParentID:  parentID,
				Cursor:    cursor,
				Err:       err,
			}
			if page != nil {
				ev.Children = len(page.Children)
			}
			e.hooks.OnList(ctx, ev)
		}
		if err != nil {
			return fmt.Errorf("list children of %s: %w", parentID, err)
		}

		for _, ref := range page.Children {
			children = append(children, e.add(ref.ID, !ref.HasChildren))
		}
		if !page.HasMore() {
			break
		}
		cursor = page.NextCursor
	}

	e.logger.Debug("discovered children", "parent", parentID, "count", len(children))
	e.nodes[idx].children = children
	e.nodes[idx].known = true
	return nil
}

// add appends an arena slot. Nodes known to have no children skip listing.
func (e *Executor) add(id string, empty bool) int {
	e.nodes = append(e.nodes, node{id: id, known: empty})
	return len(e.nodes) - 1
}

// Execute applies every entry of plan in order. On failure it returns the
// partial Result together with an *ExecutionError.
func (e *Executor) Execute(ctx context.Context, plan *domain.Plan) (*Result, error) {
	res := &Result{}
	if plan == nil {
		return res, nil
	}
	start := e.retries

	for i, entry := range plan.Entries {
		ids, err := e.apply(ctx, i, entry)
		res.Retries = e.retries - start
		if err != nil {
			e.logger.Error("plan entry failed", "entry", i, "path", entry.Path.String(), "err", err)
			return res, &ExecutionError{Entry: i, Completed: i, Path: entry.Path, Err: err}
		}
		res.Calls++
		res.Created = append(res.Created, ids...)
	}

	e.logger.Debug("plan applied", "calls", res.Calls, "created", len(res.Created), "retries", res.Retries)
	return res, nil
}

func (e *Executor) apply(ctx context.Context, i int, entry domain.PlanEntry) ([]string, error) {
	if len(entry.Units) > domain.MaxSiblings {
		return nil, fmt.Errorf("%w: entry carries %d units", domain.ErrLimitExceeded, len(entry.Units))
	}
	target, err := e.resolve(ctx, entry.Path)
	if err != nil {
		return nil, err
	}
	parentID := e.nodes[target].id

	ev := &domain.CallEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCallStart},
		Entry:     i,
		Path:      entry.Path,
		ParentID:  parentID,
		Units:     len(entry.Units),
	}
	if e.hooks.OnCallStart != nil {
		e.hooks.OnCallStart(ctx, ev)
	}

	var ids []string
	began := time.Now()
	err = e.withRetry(ctx, "append", func(ctx context.Context) error {
		var err error
		ids, err = e.store.AppendChildren(ctx, parentID, entry.Units)
		return err
	})
	if err == nil && len(ids) != len(entry.Units) {
		err = fmt.Errorf("append to %s: store returned %d ids for %d units", parentID, len(ids), len(entry.Units))
	}

	if e.hooks.OnCallDone != nil {
		done := *ev
		done.Type = domain.EventCallDone
		done.Timestamp = time.Now()
		done.Duration = time.Since(began)
		done.Created = ids
		done.Err = err
		e.hooks.OnCallDone(ctx, &done)
	}
	if err != nil {
		return nil, fmt.Errorf("append to %s: %w", parentID, err)
	}

	if e.nodes[target].known {
		for j, id := range ids {
			child := e.add(id, !entry.Units[j].HasChildren())
			e.nodes[target].children = append(e.nodes[target].children, child)
		}
	}
	e.logger.Debug("entry applied", "entry", i, "path", entry.Path.String(), "parent", parentID, "units", len(ids))
	return ids, nil
}

func (e *Executor) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := retry.Do(ctx, e.policy, fn, retry.WithNotify(func(attempt int, delay time.Duration, err error) {
		e.retries++
		e.logger.Warn("retrying remote call", "op", op, "attempt", attempt, "delay", delay, "err", err)
		if e.hooks.OnRetry != nil {
			e.hooks.OnRetry(ctx, &domain.RetryEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRetry},
				Op:        op,
				Attempt:   attempt,
				Delay:     delay,
				Err:       err,
			})
		}
	}))
	return err
}

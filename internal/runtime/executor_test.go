package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/blockloom/internal/planner"
	"github.com/aretw0/blockloom/internal/runtime"
	"github.com/aretw0/blockloom/pkg/adapters/memory"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaves(prefix string, n int) []domain.Block {
	out := make([]domain.Block, n)
	for i := range out {
		out[i] = domain.NewParagraph(domain.Text(fmt.Sprintf("%s%d", prefix, i)))
	}
	return out
}

func chain(n int) domain.Block {
	b := domain.NewParagraph(domain.Text(fmt.Sprintf("p%d", n-1)))
	for i := n - 2; i >= 0; i-- {
		b = domain.NewParagraph(domain.Text(fmt.Sprintf("p%d", i))).WithChildren([]domain.Block{b})
	}
	return b
}

func run(t *testing.T, store *memory.Store, blocks []domain.Block, opts ...runtime.Option) (string, *runtime.Result, error) {
	t.Helper()
	plan, err := planner.Build(blocks)
	require.NoError(t, err)
	root := store.CreateRoot()
	opts = append([]runtime.Option{runtime.WithRetryPolicy(retry.NoDelay(5))}, opts...)
	res, err := runtime.NewExecutor(store, root, opts...).Execute(context.Background(), plan)
	return root, res, err
}

func TestExecute_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.Block
		calls int
	}{
		{"flat", leaves("n", 3), 1},
		{"sibling split", leaves("n", 150), 2},
		{"nested overflow", func() []domain.Block {
			top := leaves("c", 150)
			top[3] = top[3].WithChildren(leaves("g", 150))
			return top
		}(), 3},
		{"deep chain", []domain.Block{chain(8)}, 3},
		{"table and columns", []domain.Block{
			domain.NewBlock(domain.Table{Width: 1},
				domain.NewBlock(domain.TableRow{Cells: [][]domain.Inline{{domain.Text("r0")}}}),
				domain.NewBlock(domain.TableRow{Cells: [][]domain.Inline{{domain.Text("r1")}}}),
			),
			domain.NewBlock(domain.ColumnList{},
				domain.NewBlock(domain.Column{}, domain.NewParagraph(domain.Text("left"))),
				domain.NewBlock(domain.Column{}, domain.NewParagraph(domain.Text("right"))),
			),
		}, 2},
		{"nested table", []domain.Block{
			domain.NewBlock(domain.Toggle{RichText: []domain.Inline{domain.Text("t")}},
				domain.NewBlock(domain.Table{Width: 1},
					domain.NewBlock(domain.TableRow{Cells: [][]domain.Inline{{domain.Text("r0")}}}),
				),
			),
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			root, res, err := run(t, store, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.calls, res.Calls)
			assert.Equal(t, tt.calls, store.Appends())
			assert.Zero(t, res.Retries)

			snap, err := store.Snapshot(root)
			require.NoError(t, err)
			assert.Equal(t, tt.input, snap, "the remote tree must reproduce the input")
		})
	}
}

func TestExecute_CreatedIDs(t *testing.T) {
	store := memory.NewStore()
	root, res, err := run(t, store, leaves("n", 120))
	require.NoError(t, err)
	require.Len(t, res.Created, 120)

	page, err := store.ListChildren(context.Background(), root, "", 100)
	require.NoError(t, err)
	assert.Equal(t, res.Created[0], page.Children[0].ID)
	assert.Equal(t, res.Created[99], page.Children[99].ID)
}

func TestExecute_ListsOnlyWhatItNeeds(t *testing.T) {
	var lists []domain.ListEvent
	hooks := domain.LifecycleHooks{
		OnList: func(_ context.Context, ev *domain.ListEvent) { lists = append(lists, *ev) },
	}

	// The overflow entry at [3] targets a node created by this invocation,
	// so no listing is needed at all.
	top := leaves("c", 150)
	top[3] = top[3].WithChildren(leaves("g", 150))
	store := memory.NewStore()
	_, _, err := run(t, store, top, runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	assert.Empty(t, lists)

	// A chain needs the embedded descendants discovered once per level.
	_, _, err = run(t, store, []domain.Block{chain(5)}, runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestExecute_PaginatedDiscovery(t *testing.T) {
	store := memory.NewStore()
	root := store.CreateRoot()

	var pages int
	exec := runtime.NewExecutor(store, root,
		runtime.WithPageSize(3),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnList: func(_ context.Context, ev *domain.ListEvent) { pages++ },
		}),
	)

	parent := domain.NewBlock(domain.Toggle{}, leaves("k", 7)...)
	plan := &domain.Plan{Entries: []domain.PlanEntry{
		{Path: domain.Path{}, Units: []domain.Block{parent}},
		{Path: domain.Path{0, 5}, Units: leaves("deep", 1)},
	}}
	res, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Calls)
	assert.Equal(t, 3, pages, "7 children in pages of 3")

	snap, err := store.Snapshot(root)
	require.NoError(t, err)
	assert.Equal(t, "deep0", domain.PlainText(snap[0].Children[5].Children[0].RichText()))
}

func TestExecute_RetryConvergence(t *testing.T) {
	failures := 2
	store := memory.NewStore(memory.WithFaults(func(op, _ string) error {
		if op == "append" && failures > 0 {
			failures--
			return &domain.RemoteError{Op: op, Code: domain.CodeRateLimit, Status: 429, Message: "rate limited"}
		}
		return nil
	}))

	var retries []domain.RetryEvent
	hooks := domain.LifecycleHooks{
		OnRetry: func(_ context.Context, ev *domain.RetryEvent) { retries = append(retries, *ev) },
	}
	root, res, err := run(t, store, leaves("n", 3), runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Retries)
	require.Len(t, retries, 2)
	assert.Equal(t, "append", retries[0].Op)
	assert.Equal(t, 1, retries[0].Attempt)
	assert.Equal(t, 2, retries[1].Attempt)

	snap, err := store.Snapshot(root)
	require.NoError(t, err)
	assert.Len(t, snap, 3, "the tree is created exactly once")
}

func TestExecute_PermanentFailureStopsAtPrefix(t *testing.T) {
	appends := 0
	store := memory.NewStore(memory.WithFaults(func(op, _ string) error {
		if op != "append" {
			return nil
		}
		appends++
		if appends == 2 {
			return &domain.RemoteError{Op: op, Code: domain.CodeForbidden, Status: 403, Message: "restricted"}
		}
		return nil
	}))

	top := leaves("c", 150)
	top[3] = top[3].WithChildren(leaves("g", 150))
	root, res, err := run(t, store, top)

	var execErr *runtime.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.Entry)
	assert.Equal(t, 1, execErr.Completed)
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	assert.Equal(t, 2, appends, "permanent errors are not retried")
	assert.Equal(t, 1, res.Calls)
	assert.Len(t, res.Created, 100)

	snap, err := store.Snapshot(root)
	require.NoError(t, err)
	assert.Len(t, snap, 100, "only the applied prefix exists remotely")
}

func TestExecute_RetriesExhausted(t *testing.T) {
	store := memory.NewStore(memory.WithFaults(func(op, _ string) error {
		return &domain.RemoteError{Op: op, Code: domain.CodeUnavailable, Status: 503, Message: "down"}
	}))
	_, res, err := run(t, store, leaves("n", 1), runtime.WithRetryPolicy(retry.NoDelay(3)))

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 2, res.Retries)
	assert.Zero(t, res.Calls)
}

func TestExecute_Canceled(t *testing.T) {
	store := memory.NewStore()
	plan, err := planner.Build(leaves("n", 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runtime.NewExecutor(store, store.CreateRoot()).Execute(ctx, plan)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, store.Appends())
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	root := store.CreateRoot()
	exec := runtime.NewExecutor(store, root)

	id, err := exec.ResolveID(ctx, domain.Path{})
	require.NoError(t, err)
	assert.Equal(t, root, id)

	_, err = exec.ResolveID(ctx, domain.Path{0})
	assert.ErrorIs(t, err, domain.ErrPathNotFound, "the root starts with no known children")

	plan := &domain.Plan{Entries: []domain.PlanEntry{
		{Path: domain.Path{}, Units: []domain.Block{domain.NewBlock(domain.Toggle{}, leaves("k", 2)...)}},
	}}
	res, err := exec.Execute(ctx, plan)
	require.NoError(t, err)

	id, err = exec.ResolveID(ctx, domain.Path{0})
	require.NoError(t, err)
	assert.Equal(t, res.Created[0], id)

	_, err = exec.ResolveID(ctx, domain.Path{0, 1})
	assert.NoError(t, err)
	_, err = exec.ResolveID(ctx, domain.Path{0, 2})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)

	plan = &domain.Plan{Entries: []domain.PlanEntry{{Path: domain.Path{4}, Units: leaves("x", 1)}}}
	_, err = exec.Execute(ctx, plan)
	var execErr *runtime.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/google/uuid"
)

// DefaultPageSize is used when a listing does not ask for a page size.
const DefaultPageSize = 100

// Fault decides whether a store operation fails before touching any state.
// op is "append" or "list".
type Fault func(op, parentID string) error

type node struct {
	payload  domain.Payload
	children []string
}

// Store implements ports.BlockStore in memory, enforcing the remote write limits.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*node
	newID    func() string
	pageSize int
	fault    Fault
	appends  int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid generator, for deterministic ids in tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithPageSize sets the default and maximum listing page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithFaults installs a fault injector consulted before every operation.
func WithFaults(f Fault) Option {
	return func(s *Store) {
		s.fault = f
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:    make(map[string]*node),
		newID:    uuid.NewString,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoot adds an empty top-level node that content can be appended under.
func (s *Store) CreateRoot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.nodes[id] = &node{}
	return id
}

// AppendChildren creates children under parentID. Nothing is stored when the
// payload breaks the write limits.
func (s *Store) AppendChildren(ctx context.Context, parentID string, children []domain.Block) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.inject("append", parentID); err != nil {
		return nil, err
	}
	if err := domain.CheckCallLimits(children); err != nil {
		return nil, &domain.RemoteError{Op: "append", Code: domain.CodeInvalidInput, Message: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, notFound("append", parentID)
	}
	if parent.payload != nil {
		for _, c := range children {
			if err := parent.payload.Kind().CheckChild(c.Kind()); err != nil {
				return nil, &domain.RemoteError{Op: "append", Code: domain.CodeInvalidInput,
					Message: fmt.Sprintf("block %s: %v", parentID, err)}
			}
		}
	}

	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, s.insert(c))
	}
	parent.children = append(parent.children, ids...)
	return ids, nil
}

func (s *Store) insert(b domain.Block) string {
	id := s.newID()
	n := &node{payload: b.Payload}
	for _, c := range b.Children {
		n.children = append(n.children, s.insert(c))
	}
	s.nodes[id] = n
	return id
}

// ListChildren returns one page of parentID's children. The cursor is the id
// of the first child of the page.
func (s *Store) ListChildren(ctx context.Context, parentID, cursor string, pageSize int) (*domain.ChildPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.inject("list", parentID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, notFound("list", parentID)
	}
	if pageSize <= 0 || pageSize > s.pageSize {
		pageSize = s.pageSize
	}

	start := 0
	if cursor != "" {
		start = slices.Index(parent.children, cursor)
		if start < 0 {
			return nil, &domain.RemoteError{Op: "list", Code: domain.CodeInvalidInput, Message: "invalid start_cursor " + cursor}
		}
	}
	end := min(start+pageSize, len(parent.children))

	page := &domain.ChildPage{Children: make([]domain.ChildRef, 0, end-start)}
	for _, id := range parent.children[start:end] {
		child := s.nodes[id]
		page.Children = append(page.Children, domain.ChildRef{
			ID:          id,
			Kind:        child.payload.Kind(),
			HasChildren: len(child.children) > 0,
		})
	}
	if end < len(parent.children) {
		page.NextCursor = parent.children[end]
	}
	return page, nil
}

// Snapshot materializes the subtree under id back into blocks.
func (s *Store) Snapshot(id string) ([]domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, notFound("snapshot", id)
	}
	return s.snapshot(n), nil
}

func (s *Store) snapshot(n *node) []domain.Block {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]domain.Block, 0, len(n.children))
	for _, id := range n.children {
		child := s.nodes[id]
		out = append(out, domain.NewBlock(child.payload, s.snapshot(child)...))
	}
	return out
}

// Appends reports how many append calls reached the store.
func (s *Store) Appends() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appends
}

// Len reports the number of stored nodes, roots included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *Store) inject(op, parentID string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, parentID)
}

func notFound(op, id string) error {
	return &domain.RemoteError{Op: op, Code: domain.CodeNotFound, Message: "could not find block with id " + id}
}

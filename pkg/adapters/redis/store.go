package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/schema"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPageSize is used when a listing does not ask for a page size.
const DefaultPageSize = 100

// Store implements ports.BlockStore using Redis.
//
// Every node is a hash at <prefix>block:<id> holding its type and wire
// payload; its ordered children are a list at <prefix>children:<id>.
// An append is written in a single MULTI/EXEC transaction.
type Store struct {
	client   *backend.Client
	prefix   string
	pageSize int
}

type Option func(*Store)

// WithPrefix sets the key prefix for blocks.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
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

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:   client,
		prefix:   "blockloom:",
		pageSize: DefaultPageSize,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) blockKey(id string) string {
	return s.prefix + "block:" + id
}

func (s *Store) childrenKey(id string) string {
	return s.prefix + "children:" + id
}

// CreateRoot adds an empty top-level node that content can be appended under.
func (s *Store) CreateRoot(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.client.HSet(ctx, s.blockKey(id), "type", "", "root", "1").Err(); err != nil {
		return "", fmt.Errorf("failed to create root: %w", err)
	}
	return id, nil
}

// AppendChildren creates children under parentID in one transaction.
func (s *Store) AppendChildren(ctx context.Context, parentID string, children []domain.Block) ([]string, error) {
	if err := domain.CheckCallLimits(children); err != nil {
		return nil, &domain.RemoteError{Op: "append", Code: domain.CodeInvalidInput, Message: err.Error()}
	}

	parentType, err := s.client.HGet(ctx, s.blockKey(parentID), "type").Result()
	if errors.Is(err, backend.Nil) {
		return nil, notFound("append", parentID)
	}
	if err != nil {
		return nil, unavailable("append", err)
	}
	if parentType != "" {
		for _, c := range children {
			if err := domain.Kind(parentType).CheckChild(c.Kind()); err != nil {
				return nil, &domain.RemoteError{Op: "append", Code: domain.CodeInvalidInput,
					Message: fmt.Sprintf("block %s: %v", parentID, err)}
			}
		}
	}

	if len(children) == 0 {
		return []string{}, nil
	}

	var (
		ids    = make([]string, 0, len(children))
		writes []func(backend.Pipeliner)
	)
	for _, c := range children {
		id, err := s.stage(ctx, parentID, c, &writes)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		for _, w := range writes {
			w(pipe)
		}
		pipe.RPush(ctx, s.childrenKey(parentID), toAny(ids)...)
		return nil
	})
	if err != nil {
		return nil, unavailable("append", err)
	}
	return ids, nil
}

// stage assigns an id to b and queues the writes for it and its subtree.
func (s *Store) stage(ctx context.Context, parentID string, b domain.Block, writes *[]func(backend.Pipeliner)) (string, error) {
	wire, err := schema.EncodeBlock(b.WithChildren(nil))
	if err != nil {
		return "", &domain.RemoteError{Op: "append", Code: domain.CodeInvalidInput, Message: err.Error()}
	}
	payload, err := json.Marshal(wire.Content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal block: %w", err)
	}

	id := uuid.NewString()
	childIDs := make([]string, 0, len(b.Children))
	for _, c := range b.Children {
		cid, err := s.stage(ctx, id, c, writes)
		if err != nil {
			return "", err
		}
		childIDs = append(childIDs, cid)
	}

	*writes = append(*writes, func(pipe backend.Pipeliner) {
		pipe.HSet(ctx, s.blockKey(id), "type", wire.Type, "payload", payload, "parent", parentID)
		if len(childIDs) > 0 {
			pipe.RPush(ctx, s.childrenKey(id), toAny(childIDs)...)
		}
	})
	return id, nil
}

// ListChildren returns one page of parentID's children. The cursor is the
// offset of the first child of the page.
func (s *Store) ListChildren(ctx context.Context, parentID, cursor string, pageSize int) (*domain.ChildPage, error) {
	exists, err := s.client.Exists(ctx, s.blockKey(parentID)).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}
	if exists == 0 {
		return nil, notFound("list", parentID)
	}
	if pageSize <= 0 || pageSize > s.pageSize {
		pageSize = s.pageSize
	}

	var start int64
	if cursor != "" {
		start, err = strconv.ParseInt(cursor, 10, 64)
		if err != nil || start < 0 {
			return nil, &domain.RemoteError{Op: "list", Code: domain.CodeInvalidInput, Message: "invalid start_cursor " + cursor}
		}
	}

	// Fetch one extra id to learn whether another page follows.
	ids, err := s.client.LRange(ctx, s.childrenKey(parentID), start, start+int64(pageSize)).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}
	page := &domain.ChildPage{}
	if len(ids) > pageSize {
		ids = ids[:pageSize]
		page.NextCursor = strconv.FormatInt(start+int64(pageSize), 10)
	}
	if len(ids) == 0 {
		return page, nil
	}

	pipe := s.client.Pipeline()
	types := make([]*backend.StringCmd, len(ids))
	counts := make([]*backend.IntCmd, len(ids))
	for i, id := range ids {
		types[i] = pipe.HGet(ctx, s.blockKey(id), "type")
		counts[i] = pipe.LLen(ctx, s.childrenKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable("list", err)
	}

	page.Children = make([]domain.ChildRef, 0, len(ids))
	for i, id := range ids {
		page.Children = append(page.Children, domain.ChildRef{
			ID:          id,
			Kind:        domain.Kind(types[i].Val()),
			HasChildren: counts[i].Val() > 0,
		})
	}
	return page, nil
}

// Get loads one stored block without its children.
func (s *Store) Get(ctx context.Context, id string) (domain.Block, error) {
	fields, err := s.client.HGetAll(ctx, s.blockKey(id)).Result()
	if err != nil {
		return domain.Block{}, unavailable("get", err)
	}
	if len(fields) == 0 || fields["type"] == "" {
		return domain.Block{}, notFound("get", id)
	}
	wire := schema.Block{ID: id, Type: fields["type"]}
	if err := json.Unmarshal([]byte(fields["payload"]), &wire.Content); err != nil {
		return domain.Block{}, fmt.Errorf("failed to unmarshal block %s: %w", id, err)
	}
	return schema.DecodeBlock(wire)
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.RemoteError{Op: op, Code: domain.CodeUnavailable, Message: err.Error()}
}

func notFound(op, id string) error {
	return &domain.RemoteError{Op: op, Code: domain.CodeNotFound, Message: "could not find block with id " + id}
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

package planner

import (
	"log/slog"
	"sort"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/flatten"
)

// Option configures a planning pass.
type Option func(*config)

type config struct {
	basePath    domain.Path
	policy      domain.ErrorPolicy
	maxSiblings int
	maxDepth    int
}

// WithBasePath addresses the target node relative to the executor root.
// Defaults to the root itself.
func WithBasePath(p domain.Path) Option {
	return func(c *config) {
		c.basePath = p
	}
}

// WithErrorPolicy sets how structural errors are handled (default: domain.FailFast).
func WithErrorPolicy(policy domain.ErrorPolicy) Option {
	return func(c *config) {
		if policy != nil {
			c.policy = policy
		}
	}
}

// WithMaxSiblings overrides the sibling-count limit per children list.
func WithMaxSiblings(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSiblings = n
		}
	}
}

// WithMaxDepth overrides the number of levels a call may embed below its units.
func WithMaxDepth(d int) Option {
	return func(c *config) {
		if d >= 0 {
			c.maxDepth = d
		}
	}
}

// Tolerate returns an ErrorPolicy that logs structural errors and drops the
// offending nodes instead of aborting.
func Tolerate(logger *slog.Logger) domain.ErrorPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error) error {
		logger.Warn("dropping invalid content", "err", err)
		return nil
	}
}

// builder accumulates overflow entries for one Build call.
type builder struct {
	cfg     config
	entries []domain.PlanEntry
}

// Build computes the plan that materializes blocks under the base path.
// Structural errors are routed through the error policy; with the default
// policy the first one aborts planning and no plan is returned.
func Build(blocks []domain.Block, opts ...Option) (*domain.Plan, error) {
	cfg := config{
		policy:      domain.FailFast,
		maxSiblings: domain.MaxSiblings,
		maxDepth:    domain.MaxCallDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.basePath == nil {
		cfg.basePath = domain.Path{}
	}

	b := &builder{cfg: cfg}
	units, err := b.resolve(blocks, cfg.basePath, 0)
	if err != nil {
		return nil, err
	}

	// The units embedded at the target go first: overflow entries at the same
	// path append after them.
	entries := make([]domain.PlanEntry, 0, len(b.entries)+1)
	if len(units) > 0 {
		entries = append(entries, domain.PlanEntry{Path: cfg.basePath, Units: units})
	}
	entries = append(entries, b.entries...)

	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].Path) < len(entries[j].Path)
	})

	return &domain.Plan{Entries: entries}, nil
}

// resolve assigns the siblings under path to the current call (returned) or to
// overflow entries (recorded). depth is the level of the siblings within the
// current call.
func (b *builder) resolve(blocks []domain.Block, path domain.Path, depth int) ([]domain.Block, error) {
	siblings, err := b.admit(blocks, path)
	if err != nil {
		return nil, err
	}
	if len(siblings) == 0 {
		return nil, nil
	}

	allowed := b.cfg.maxDepth
	for _, s := range siblings {
		if c := s.Kind().DepthCeiling(); c < allowed {
			allowed = c
		}
	}

	quota := b.cfg.maxSiblings
	if allowed < depth {
		quota = 0
	}

	embedded := make([]domain.Block, 0, min(quota, len(siblings)))
	var overflow []domain.Block

	for i, s := range siblings {
		at := path.Append(i)
		if len(embedded) < quota {
			unit, err := b.assemble(s, at, depth)
			if err != nil {
				return nil, err
			}
			embedded = append(embedded, unit)
			continue
		}

		// Overflow siblings are the root units of their own call.
		unit, err := b.assemble(s, at, 0)
		if err != nil {
			return nil, err
		}
		overflow = append(overflow, unit)
	}

	for _, batch := range flatten.Chunk(overflow, b.cfg.maxSiblings) {
		b.entries = append(b.entries, domain.PlanEntry{Path: path, Units: batch})
	}

	return embedded, nil
}

// admit drops blocks whose kind is unknown, subject to the error policy.
func (b *builder) admit(blocks []domain.Block, path domain.Path) ([]domain.Block, error) {
	var rejected bool
	for _, blk := range blocks {
		if blk.Kind().Validate() != nil {
			rejected = true
			break
		}
	}
	if !rejected {
		return blocks, nil
	}

	kept := make([]domain.Block, 0, len(blocks))
	for i, blk := range blocks {
		if err := blk.Kind().Validate(); err != nil {
			serr := &domain.StructuralError{Path: path.Append(i), Kind: blk.Kind(), Reason: "unknown kind", Err: err}
			if err := b.cfg.policy(serr); err != nil {
				return nil, err
			}
			continue
		}
		kept = append(kept, blk)
	}
	return kept, nil
}

// assemble builds the ready-to-send unit for block, which sits at depth within
// its call and will be addressed by at.
func (b *builder) assemble(block domain.Block, at domain.Path, depth int) (domain.Block, error) {
	kind := block.Kind()
	if !block.HasChildren() {
		return block.WithChildren(nil), nil
	}

	if !kind.AllowsChildren() {
		serr := &domain.StructuralError{Path: at, Kind: kind, Reason: "children on a leaf kind", Err: domain.ErrChildrenForbidden}
		if err := b.cfg.policy(serr); err != nil {
			return domain.Block{}, err
		}
		return block.WithChildren(nil), nil
	}

	children := block.Children
	if _, typed := kind.RequiredChildKind(); typed {
		kept := make([]domain.Block, 0, len(children))
		for i, c := range children {
			if err := kind.CheckChild(c.Kind()); err != nil {
				serr := &domain.StructuralError{Path: at.Append(i), Kind: kind, Reason: "invalid child", Err: err}
				if err := b.cfg.policy(serr); err != nil {
					return domain.Block{}, err
				}
				continue
			}
			kept = append(kept, c)
		}
		children = kept
	}

	nested, err := b.resolve(children, at, depth+1)
	if err != nil {
		return domain.Block{}, err
	}
	if len(nested) == 0 {
		nested = nil
	}
	return block.WithChildren(nested), nil
}

package domain

// PlanEntry is one bounded append call: Units are created, in order, as the next
// children of the node addressed by Path.
type PlanEntry struct {
	Path  Path    `json:"path"`
	Units []Block `json:"-"`
}

// Nodes returns the number of nodes the entry creates, nested ones included.
func (e PlanEntry) Nodes() int {
	n := 0
	for _, u := range e.Units {
		n += u.Count()
	}
	return n
}

// Plan is the ordered sequence of calls that materializes a block tree.
// Entries are sorted by ascending path length.
type Plan struct {
	Entries []PlanEntry
}

// Calls returns the number of remote append calls the plan performs.
func (p *Plan) Calls() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Nodes returns the total number of nodes the plan creates.
func (p *Plan) Nodes() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, e := range p.Entries {
		n += e.Nodes()
	}
	return n
}

// Package planner turns a block forest into an ordered Plan of bounded append
// calls.
//
// The planner is a pure function of its input: it performs no I/O and keeps no
// state between calls. Each call unit holds at most MaxSiblings nodes per
// children list and embeds descendants only as deep as the kinds along the
// in-call path allow. Descendants that do not fit are emitted as later entries
// addressed by the Path their parent will have once earlier entries ran.
//
// Assignment is greedy and order preserving: siblings fill the current call up
// to the quota and the rest spill into overflow entries at the parent path.
// It is deterministic but not claimed to be optimal in call count.
package planner

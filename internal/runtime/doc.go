// Package runtime applies a Plan against a BlockStore.
//
// The Executor keeps a per-invocation arena of the nodes it has seen, rooted
// at the invocation target. Paths in plan entries index into that arena: the
// root's children are the nodes created by this invocation, deeper levels are
// discovered lazily by listing the remote store and cached for later entries.
// Entries run strictly in order and every remote call goes through the retry
// policy.
package runtime

// Package graph converts a representation tree into a flat, render-ready graph.
//
// # Overview
//
// [Build] walks one or more tree roots depth-first and produces a [Graph]: one
// [Node] per tree node, in pre-order, and one [Edge] per parent-child link.
// Nodes keep their source [tree.Range] so writers can annotate output with
// byte offsets, and grouping boundaries (callable bodies) are tracked so
// writers can open and close collapsible blocks.
//
// # Identity
//
// Node ids come from an [Allocator] and never depend on labels: two nodes
// rendering the same text still receive distinct ids. Ids are counter based
// ("n0", "n1", ...) and deterministic for a given tree.
//
// # Traversal
//
// The walk uses an explicit worklist over an arena of node records, so deeply
// nested input cannot exhaust the call stack. A node seen twice in the same
// pass (a cycle or a shared subtree) is not entered again; a placeholder node
// is emitted in its place. [Options.MaxNodes] caps the number of emitted
// nodes, with one placeholder standing in for each truncated parent.
//
// # Concurrency
//
// A Graph is built per request and is not safe for concurrent mutation. Build
// itself keeps no global state and may run concurrently.
package graph

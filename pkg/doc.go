// Package pkg provides the libraries behind irscope, which turns a program's
// syntax tree into a Mermaid graph whose nodes can be traced back to source
// offsets.
//
// # Architecture
//
//	source text
//	     ↓
//	[analyzer]     parse with tree-sitter, collect messages
//	     ↓
//	[tree]         representation tree with byte ranges
//	     ↓
//	[graph]        ids, edges and subgraph groups
//	     ↓
//	[render]       Mermaid (with %% Offset annotations), class diagram, DOT, SVG
//	     ↓
//	[pipeline]     runs the above and builds the wire response
//
// Analyzer messages pass through [diagnostics], which drops noise and keeps
// the locations a client can jump to.
//
// # Client side
//
// [highlight] rebuilds the id → range index from annotated graph text and
// projects a cursor offset onto it, marking every containing node.
// [explorer] keeps the editing state of the terminal explorer and schedules
// conversions so that only the latest result is shown.
//
// # Transport
//
// [server] serves conversions over HTTP; [client] talks to it with retries
// from [httputil].
//
// # Support
//
//   - [config]: TOML, .env and environment configuration
//   - [errors]: coded errors with HTTP status mapping
//   - [observability]: hooks for pipeline, server and HTTP client events
//   - [io]: JSON export and import of graphs
//   - [source]: line/column ↔ byte offset conversion
//   - [buildinfo]: version information set at link time
//
// [analyzer]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/analyzer
// [tree]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/tree
// [graph]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/pipeline
// [diagnostics]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/diagnostics
// [highlight]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/highlight
// [explorer]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/explorer
// [server]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/server
// [client]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/client
// [httputil]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/httputil
// [config]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/io
// [source]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/source
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/irscope/pkg/buildinfo
package pkg

// Package io provides JSON import and export for representation graphs.
//
// # JSON Format
//
// The format has two required top-level arrays. Nodes appear in pre-order,
// the order in which the Mermaid writer emits them:
//
//	{
//	  "nodes": [
//	    {"id": "n0", "label": "FILE input.kt", "kind": "FILE", "range": {"start": 0, "end": 24}},
//	    {"id": "n1", "label": "FUN main", "kind": "FUN", "range": {"start": 0, "end": 24},
//	     "group": true, "title": "main"}
//	  ],
//	  "edges": [
//	    {"from": "n0", "to": "n1"}
//	  ]
//	}
//
// Use [WriteJSON] or [ExportJSON] to export, [ReadJSON] or [ImportJSON] to
// import. An imported graph can be rendered again as Mermaid or DOT without
// re-running the analyzer.
package io

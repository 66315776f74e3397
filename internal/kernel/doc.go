// Package kernel defines the immutable loop-nest program snapshot the
// analysis passes operate on: statements with assignment target and
// right-hand side expression trees, iteration domains keyed by loop index
// names, parameter assumptions, and the happens-after edges the dependency
// engine attaches.
//
// IMMUTABILITY:
//
// A Kernel and its Statements are values. Pipeline stages never mutate a
// statement in place; they build replacement statements with
// WithHappensAfter and a replacement kernel with WithStatements. Two
// stages can therefore share a snapshot freely.
//
// DERIVED INDEXES:
//
// NewKernel precomputes the reader and writer indexes (array variable name
// to the statement ids that read or write it) and the id-to-position table.
// They are built once at ingestion and read-only afterwards; querying them
// never scans the statement list.
//
// CONTENT-ADDRESSED IDENTITY:
//
// Hash and AnalysisHash render the snapshot and its edges as RFC 8785
// canonical JSON (UTF-16 key order, NFC strings, no HTML escaping) and
// apply domain-separated SHA-256. Equal kernels hash equal across
// processes, which the run store relies on for provenance.
package kernel

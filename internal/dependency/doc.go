// Package dependency computes instance-level data dependences between
// kernel statements.
//
// The package answers one question: which iterations of which statements
// must run before a given iteration of a given statement, and because of
// which variable. Results land on each statement as happens-after edges
// whose instance relations pair iterations of the depending statement
// with iterations of the statement it waits on.
//
// ANALYSIS FLOW:
//
// 1. ExtractAccessRelations walks every assignment and records, per
// (statement, variable), the exact read and write relations from the
// iteration domain to the accessed index tuples.
// 2. Either ComputeDataDependencies builds the full dependence graph
// directly, or SeedLexicographicOrder plants coarse program-order edges
// that RefineSeededDependencies then narrows per variable.
// 3. ReportDependencies renders the edges for inspection.
//
// SOUNDNESS:
//
// The sequential semantics of the input program are the ground truth. An
// edge may over-order (extra edges cost parallelism, never correctness)
// but must never under-order. Everything that cannot be modelled exactly
// therefore fails hard by default: non-affine index expressions,
// whole-array references, mismatched loop nesting orders. Best-effort
// mode (UndecidableSkip) trades that guarantee away explicitly and logs
// every access it drops.
//
// DETERMINISM:
//
// Statements are processed in program order, variables in sorted order,
// and relations carry a canonical disjunct form, so equal inputs produce
// byte-equal reports and hashes.
package dependency

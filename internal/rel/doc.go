// Package rel implements sets and relations over integer tuples constrained
// by affine predicates, the algebra the dependence analysis is built on.
//
// A Space names the dimensions of a relation: parameters (symbolic constants
// such as problem sizes), input dimensions and output dimensions. A Set holds
// integer points of one tuple; a Map relates input tuples to output tuples.
// Both are unions of conjunctions of affine constraints (equalities e = 0 and
// inequalities e >= 0 with int64 coefficients).
//
// ARCHITECTURE:
//
// Immutable values:
// Every operation returns a new Set or Map; nothing is mutated in place.
// This keeps analysis passes free to share relations without copying.
//
// Exactness:
// Composition and emptiness eliminate dimensions by exact integer
// substitution through equalities, falling back to Fourier-Motzkin with
// integer tightening (gcd normalization, floor division of constants) for
// inequality-bound dimensions. For the unit-coefficient systems loop
// analysis produces this is exact. A system the elimination cannot decide
// exactly is reported non-empty: an extra ordering constraint is safe for a
// dependence analysis, a missing one is not.
//
// Determinism:
// Constraints and disjuncts are kept in a canonical sorted order, so the
// textual form of equal relations is identical. The reporter and the golden
// tests rely on this.
package rel

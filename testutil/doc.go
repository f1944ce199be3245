// Package testutil provides deterministic sequence-file fixtures for tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Deterministic Record Generation
//
//	g := testutil.NewGenerator(42)
//	recs := g.Records(100)                       // seeded ids and bodies
//	path := testutil.WriteFASTA(t, dir, "a.fa", recs)
//
// Equal seeds always yield equal records, so offset assertions stay stable
// across runs.
package testutil

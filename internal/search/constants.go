package search

// Default per-file result caps
const (
	DefaultMaxSents = 100
	DefaultMaxTrees = 10
)

// Unlimited as MaxResults returns every match.
const Unlimited = -1

// operation names used in cache keys, logs and metrics
const (
	opCounts  = "counts"
	opSents   = "sents"
	opTrees   = "trees"
	opExtract = "extract"
)

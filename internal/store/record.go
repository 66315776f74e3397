package store

// Run is one recorded invocation of the analyzer.
type Run struct {
	ID            string `json:"id"`          // UUIDv7, or a fixed id in tests
	Kernel        string `json:"kernel"`      // kernel name
	KernelHash    string `json:"kernel_hash"` // content hash of the analyzed kernel
	EngineVersion string `json:"engine_version"`
	Mode          string `json:"mode"` // pipeline mode: global, seeded or seed-only
}

// Edge is one dependency edge computed during a run.
//
// Source is the statement carrying the edge (the later one in program
// order), Target the statement it depends on. Variable is empty for
// structural edges that carry program order only.
type Edge struct {
	RunID    string `json:"run_id,omitempty"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Variable string `json:"variable,omitempty"`
	Kind     string `json:"kind,omitempty"` // dependency kind, empty for structural edges
	Relation string `json:"relation"`       // canonical text of the instance relation
}

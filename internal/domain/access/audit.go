package access

import "time"

// DecisionSource tells where a check outcome came from.
type DecisionSource string

const (
	SourceCache      DecisionSource = "cache"
	SourceSuperAdmin DecisionSource = "superadmin"
	SourceOracle     DecisionSource = "oracle"
)

// Entry is one audited permission-check outcome. Fields are fixed and
// named; Metadata carries overflow data only.
type Entry struct {
	UserID       string
	TenantID     string
	ResourceType string
	Action       Action
	ResourceID   string
	Allowed      bool
	Source       DecisionSource
	CheckedAt    time.Time
	Metadata     map[string]string
}

// Recorder receives audit entries. Recording is best-effort and must never
// block or fail the permission check that produced the entry.
type Recorder interface {
	Record(entry Entry)
}

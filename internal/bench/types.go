package bench

import "time"

// Build types recorded per compiler invocation.
const (
	BuildFull        = "full"
	BuildIncremental = "inc"
	BuildSkip        = "skip"
)

// Metrics holds the values extracted from compiler diagnostic output.
// A nil field means the corresponding label was not found in the text;
// Diagnostics is never nil once parsing ran, a summary-less output counts
// as zero diagnostics.
type Metrics struct {
	Files        *int64   `json:"files"`
	Lines        *int64   `json:"lines"`
	MemoryKB     *int64   `json:"memoryKB"`
	TotalTimeSec *float64 `json:"totalTimeSec"`
	ParseTimeSec *float64 `json:"parseTimeSec"`
	BindTimeSec  *float64 `json:"bindTimeSec"`
	CheckTimeSec *float64 `json:"checkTimeSec"`
	EmitTimeSec  *float64 `json:"emitTimeSec"`
	Diagnostics  *int64   `json:"diagnostics"`
}

// Record is one row of the result set. Records are immutable once appended;
// (Project, Target, BuildType) identifies a row but duplicates are permitted
// across configurations.
type Record struct {
	Project   string  `json:"project"`
	Target    *string `json:"target"`
	BuildType string  `json:"buildType"`
	ExitCode  *int    `json:"exitCode"`
	WallMs    int64   `json:"wallMs"`
	Metrics
	// ChangedFile is the base name of the source file mutated before an
	// incremental build, kept so re-runs are auditable.
	ChangedFile string  `json:"changedFile,omitempty"`
	Log         *string `json:"log"`
}

// Run is one complete sweep: the ordered record sequence plus provenance.
type Run struct {
	Timestamp time.Time `json:"timestamp"`
	Workspace string    `json:"workspace,omitempty"`
	Records   []Record  `json:"records"`
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func int64Ptr(i int64) *int64     { return &i }
func floatPtr(f float64) *float64 { return &f }

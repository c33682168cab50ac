package ir

// NOTE: These are store-layer records, not part of the canonical report
// model. They are what a run looks like once it has been persisted.

// Run status values.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunRecord describes one traversal run (store-layer).
type RunRecord struct {
	ID             string `json:"id"`
	ReportName     string `json:"report_name"`
	DefinitionJSON []byte `json:"definition_json"` // JSON encoding of the report definition
	DatasetJSON    []byte `json:"dataset_json"`    // JSON encoding of rows and named datasets
	DefinitionHash string `json:"definition_hash"`
	DatasetHash    string `json:"dataset_hash"`
	TraceDigest    string `json:"trace_digest"` // Digest of the ordered event records
	EventCount     int    `json:"event_count"`
	Restarts       []int  `json:"restarts,omitempty"` // Steps at which a page restart was requested
	MaxSteps       int    `json:"max_steps"`          // Step quota the run was driven under
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	EngineVersion  string `json:"engine_version"`
}

// EventRecord is the serializable form of one fired event (store-layer).
type EventRecord struct {
	Step          int    `json:"step"` // 1-based position in the run's trace
	Seq           int64  `json:"seq"`  // Sequence of the state the event was fired through
	Code          uint32 `json:"code"` // Event code bitmask
	Handler       string `json:"handler"`
	Group         int    `json:"group"`
	AxisRow       int    `json:"axis_row"`
	AxisCol       int    `json:"axis_col"`
	Cursor        int    `json:"cursor"`
	Artificial    bool   `json:"artificial"`
	Deep          bool   `json:"deep"`
	OriginHandler string `json:"origin_handler,omitempty"` // Set for re-fired sub-report events
	OriginSeq     int64  `json:"origin_seq,omitempty"`
}

// IR returns the record as an IRObject, for canonical encoding.
func (r EventRecord) IR() IRObject {
	return IRObject{
		"step":           IRInt(r.Step),
		"seq":            IRInt(r.Seq),
		"code":           IRInt(r.Code),
		"handler":        IRString(r.Handler),
		"group":          IRInt(r.Group),
		"axis_row":       IRInt(r.AxisRow),
		"axis_col":       IRInt(r.AxisCol),
		"cursor":         IRInt(r.Cursor),
		"artificial":     IRBool(r.Artificial),
		"deep":           IRBool(r.Deep),
		"origin_handler": IRString(r.OriginHandler),
		"origin_seq":     IRInt(r.OriginSeq),
	}
}

// TraceDigest digests an ordered list of event records. Two runs with the
// same digest fired the same events in the same order.
func TraceDigest(events []EventRecord) (string, error) {
	arr := make(IRArray, len(events))
	for i, e := range events {
		arr[i] = e.IR()
	}
	return Digest(DomainTrace, arr)
}

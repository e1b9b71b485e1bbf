package models

// These structs describe what callers hand to the pipeline and what it hands back.
// The HTTP front end encodes ProcessResult directly as its JSON response.

// Origin says where the bytes of a Reference come from.
type Origin string

const (
	OriginRemote Origin = "remote" // http(s):// URL or gs:// URI
	OriginLocal  Origin = "local"  // path on the local filesystem
	OriginUpload Origin = "upload" // bytes received by the upload endpoint
)

// Reference identifies one PDF to process.
type Reference struct {
	Name   string
	Origin Origin
	Data   []byte // only set for uploads
}

// Outcome is the per-call result status of ProcessDocument.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// ErrorPayload is the structured, user-visible form of a pipeline failure.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// ProcessResult is the output of processing a single reference.
type ProcessResult struct {
	DocumentID     string        `json:"documentId"`
	Status         Outcome       `json:"status"`
	LengthClass    string        `json:"lengthClass,omitempty"`
	Summary        string        `json:"summary,omitempty"`
	Keywords       []string      `json:"keywords,omitempty"`
	Error          *ErrorPayload `json:"error,omitempty"`
	ProcessingTime float64       `json:"processingTime"`
}

// BatchReport tallies the outcomes of one batch run.
type BatchReport struct {
	BatchID   string `json:"batchId"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// GCSEvent is the data of a Cloud Storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

package model

// Event types pushed over the job progress socket.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
	EventPing     = "ping"
	EventPong     = "pong"
)

// Envelope is the minimal frame shape. Inbound client frames carry
// nothing but a type; pong replies reuse it.
type Envelope struct {
	Type string `json:"type"`
}

// ProgressEvent reports how far a background job has come.
type ProgressEvent struct {
	Type        string    `json:"type"`
	JobID       string    `json:"job_id"`
	Progress    int       `json:"progress"`
	Status      JobStatus `json:"status"`
	CurrentStep string    `json:"current_step,omitempty"`
}

// CompleteEvent carries the job result once work has finished.
type CompleteEvent struct {
	Type   string `json:"type"`
	JobID  string `json:"job_id"`
	Result any    `json:"result"`
}

// ErrorEvent reports a terminal job failure.
type ErrorEvent struct {
	Type  string    `json:"type"`
	JobID string    `json:"job_id"`
	Error ErrorInfo `json:"error"`
}

// ErrorInfo mirrors the code and message pair of the HTTP error
// envelope.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package recommend

// Stage labels the pipeline phase a progress event belongs to.
type Stage string

const (
	StageInputProcessing Stage = "input_processing"
	StageFinding         Stage = "finding_recommendations"
	StageEnhancing       Stage = "enhancing_recommendations"
	StageCompleted       Stage = "completed"
	StageError           Stage = "error"
)

// ProgressEvent is one step of incremental progress. The terminal event is
// either StageCompleted carrying the final recommendations or StageError.
type ProgressEvent struct {
	Stage           Stage            `json:"stage"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// ProgressFunc receives pipeline progress. Called from the request goroutine
// only; implementations need no locking.
type ProgressFunc func(ProgressEvent)

package domain

// Batch is the result of a successful export: one file waiting in outgoing/.
type Batch struct {
	// ID identifies the set of records the exporter bundled.
	ID string

	// Filename is the base name of the batch file in the outgoing directory.
	Filename string
}

// BatchResult is returned by every action. It is built fresh per call and never persisted.
type BatchResult struct {
	Action            Action   `json:"action"`
	Error             string   `json:"error,omitempty"`
	BatchID           string   `json:"batch_id,omitempty"`
	LastSentFiles     []string `json:"last_sent_files"`
	LastArchivedFiles []string `json:"last_archived_files"`
	LastMediaSent     []string `json:"last_media_sent"`
	PendingFiles      []string `json:"pending_files"`
	ConfirmationCode  string   `json:"confirmation_code,omitempty"`
}

// NewBatchResult returns an empty result for the given action.
func NewBatchResult(action Action) BatchResult {
	return BatchResult{
		Action:            action,
		LastSentFiles:     []string{},
		LastArchivedFiles: []string{},
		LastMediaSent:     []string{},
		PendingFiles:      []string{},
	}
}

// Failed reports whether the action that produced the result failed.
func (r BatchResult) Failed() bool {
	return r.Error != ""
}

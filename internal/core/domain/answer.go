package domain

// Answer is the generated response to a question.
type Answer struct {
	// Text is the answer shown to the user.
	Text string

	// CitedChunkIDs lists the supplied chunks the answer relies on.
	CitedChunkIDs []string

	// Insufficient is set when the context did not address the question.
	Insufficient bool

	// ConfidenceUnknown is set when the model answered without citing
	// any supplied chunk, so grounding cannot be checked.
	ConfidenceUnknown bool
}

// InsufficientContextText is returned when the document does not
// address the question.
const InsufficientContextText = "The document does not contain enough information to answer this question."

// InsufficientAnswer returns the successful answer for unaddressed questions.
func InsufficientAnswer() *Answer {
	return &Answer{Text: InsufficientContextText, Insufficient: true}
}

// UploadResult is the outcome of ingesting one document.
type UploadResult struct {
	DocumentID string            `json:"documentId"`
	Name       string            `json:"name,omitempty"`
	Format     Format            `json:"format"`
	Entities   []ExtractedEntity `json:"entities"`
	ChunkCount int               `json:"chunkCount"`
	Indexed    bool              `json:"indexed"`
}

// AskRequest is a question about an uploaded document.
type AskRequest struct {
	DocumentID string `json:"documentId"`
	SessionID  string `json:"sessionId,omitempty"`
	Question   string `json:"question"`
}

// AskResult is the answer to an AskRequest.
type AskResult struct {
	Answer        string   `json:"answer"`
	CitedChunkIDs []string `json:"citedChunkIds"`
	SessionID     string   `json:"sessionId"`
	Insufficient  bool     `json:"insufficient"`
}

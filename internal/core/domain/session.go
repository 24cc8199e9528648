package domain

import "time"

// Turn is one completed question/answer exchange. Turns are immutable.
type Turn struct {
	Question          string    `json:"question"`
	RetrievedChunkIDs []string  `json:"retrieved_chunk_ids"`
	Answer            string    `json:"answer"`
	CitedChunkIDs     []string  `json:"cited_chunk_ids"`
	Timestamp         time.Time `json:"timestamp"`
}

// Session is a conversation about exactly one document.
type Session struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
	Turns      []Turn    `json:"turns"`
}

// LastTurn returns the most recent turn, or nil for a new session.
func (s *Session) LastTurn() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// Recent returns up to n of the most recent turns in chronological order.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	if n > len(s.Turns) {
		n = len(s.Turns)
	}
	out := make([]Turn, n)
	copy(out, s.Turns[len(s.Turns)-n:])
	return out
}

package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// RetrievalEngine selects the chunks supplied to the answer generator.
type RetrievalEngine struct {
	index *EmbeddingIndex
	docs  driven.DocumentStore
	cfg   domain.RetrievalSettings
}

// NewRetrievalEngine creates a retrieval engine.
// Unset numeric settings fall back to the defaults.
func NewRetrievalEngine(index *EmbeddingIndex, docs driven.DocumentStore, cfg domain.RetrievalSettings) *RetrievalEngine {
	defaults := domain.DefaultAppSettings().Retrieval
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaults.MaxContextChars
	}
	if cfg.HistoryTurns < 0 {
		cfg.HistoryTurns = 0
	}
	if cfg.FollowUpThreshold <= 0 || cfg.FollowUpThreshold > 1 {
		cfg.FollowUpThreshold = defaults.FollowUpThreshold
	}
	return &RetrievalEngine{index: index, docs: docs, cfg: cfg}
}

// Retrieve ranks the session document's chunks against the question and
// packs them, in rank order, into budget bytes. Packing stops at the first
// chunk that does not fit. A non-positive budget uses MaxContextChars.
//
// For a follow-up question only the chunks cited by the previous answer are
// dropped. Chunks that were retrieved but not cited stay eligible, since
// the previous answer did not use them.
func (r *RetrievalEngine) Retrieve(
	ctx context.Context, session *domain.Session, question string, budget int,
) ([]domain.ScoredChunk, error) {
	if session == nil || strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrInvalidInput)
	}
	if budget <= 0 {
		budget = r.cfg.MaxContextChars
	}

	logger.Section("Retrieval")

	var excluded map[string]bool
	if last := session.LastTurn(); last != nil && r.isFollowUp(question, last.Question) {
		excluded = make(map[string]bool, len(last.CitedChunkIDs))
		for _, id := range last.CitedChunkIDs {
			excluded[id] = true
		}
		logger.Debug("Follow-up of %q, excluding %d cited chunks", last.Question, len(excluded))
	}

	query := r.expandQuery(session, question)
	logger.Debug("Query (%d bytes), top-k %d, budget %d", len(query), r.cfg.TopK, budget)

	hits, err := r.index.Query(ctx, session.DocumentID, query, r.cfg.TopK+len(excluded))
	if err != nil {
		return nil, err
	}

	var (
		out  []domain.ScoredChunk
		used int
	)
	for _, hit := range hits {
		if len(out) == r.cfg.TopK {
			break
		}
		if hit.Similarity < r.cfg.MinSimilarity {
			logger.Debug("Chunk %s below similarity floor (%.3f)", hit.ChunkID, hit.Similarity)
			continue
		}
		if excluded[hit.ChunkID] {
			continue
		}
		chunk, err := r.docs.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("retrieve chunk %s: %w", hit.ChunkID, err)
		}
		if chunk.DocumentID != session.DocumentID {
			continue
		}
		if used+len(chunk.Content) > budget {
			logger.Debug("Budget reached at chunk %s (%d + %d > %d)", chunk.ID, used, len(chunk.Content), budget)
			break
		}
		used += len(chunk.Content)
		out = append(out, domain.ScoredChunk{Chunk: chunk, Similarity: hit.Similarity})
	}

	logger.Debug("Selected %d chunks, %d bytes", len(out), used)
	return out, nil
}

// expandQuery prefixes the question with the most recent exchanges.
func (r *RetrievalEngine) expandQuery(session *domain.Session, question string) string {
	turns := session.Recent(r.cfg.HistoryTurns)
	if len(turns) == 0 {
		return question
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Question)
		b.WriteString("\n")
		b.WriteString(t.Answer)
		b.WriteString("\n")
	}
	b.WriteString(question)
	return b.String()
}

func (r *RetrievalEngine) isFollowUp(question, previous string) bool {
	return Jaccard(ContentWords(question), ContentWords(previous)) >= r.cfg.FollowUpThreshold
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "can": true, "could": true, "did": true, "do": true, "does": true,
	"for": true, "from": true, "has": true, "have": true, "how": true, "i": true,
	"in": true, "is": true, "it": true, "its": true, "me": true, "of": true, "on": true,
	"or": true, "tell": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "will": true, "with": true, "you": true, "about": true, "there": true,
}

// ContentWords returns the lower-cased words of s without stop words.
func ContentWords(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if !stopWords[w] {
			out[w] = true
		}
	}
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or zero when both sets are empty.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Package apierr classifies failures from remote model providers into
// domain errors so that callers can decide whether to retry.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

const maxBody = 300

// statusOverloaded is Anthropic's "overloaded" response.
const statusOverloaded = 529

// Class is the set of domain errors a provider reports.
type Class struct {
	// Provider prefixes error messages.
	Provider string

	// Timeout is returned for deadline and gateway timeout failures.
	Timeout error

	// Failure is returned for everything not otherwise classified.
	Failure error
}

// Embedding returns the classification for an embedding provider.
func Embedding(provider string) Class {
	return Class{Provider: provider, Timeout: domain.ErrProviderTimeout, Failure: domain.ErrEmbeddingProvider}
}

// LanguageModel returns the classification for an LLM provider.
func LanguageModel(provider string) Class {
	return Class{Provider: provider, Timeout: domain.ErrLanguageModelTimeout, Failure: domain.ErrLanguageModel}
}

// NER returns the classification for a remote tagging model.
// Tagging failures share the embedding provider kind.
func NER(provider string) Class {
	return Embedding(provider)
}

// Transport classifies an error returned by http.Client.Do.
// Cancellation is passed through untouched.
func (c Class) Transport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s: %w: %v", c.Provider, c.Timeout, err)
	}
	return fmt.Errorf("%s: %w: %v", c.Provider, c.Failure, err)
}

// Status classifies a non-2xx response.
func (c Class) Status(status int, body []byte) error {
	return fmt.Errorf("%s: %w (status %d): %s", c.Provider, c.sentinel(status), status, excerpt(body))
}

// Failed wraps a response-level failure such as an undecodable body.
func (c Class) Failed(format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", c.Provider, c.Failure, fmt.Sprintf(format, args...))
}

func (c Class) sentinel(status int) error {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, statusOverloaded:
		return domain.ErrRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return domain.ErrMalformedRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthInvalid
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return c.Timeout
	}
	return c.Failure
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBody {
		s = s[:maxBody] + "..."
	}
	return s
}

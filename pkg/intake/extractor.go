// Package intake turns one patient message into extracted clinical facts and an
// assistant reply by asking an LLM for a strict JSON answer.
package intake

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/pkg/llm"
	"virtual-doctor-be/pkg/retry"
)

const logModule = "IntakeExtractor"

var (
	// ErrUpstreamExhausted means every attempt failed with a transient error.
	ErrUpstreamExhausted = errors.New("llm upstream unavailable")
	// ErrUpstream means the LLM answered with a non-retryable status.
	ErrUpstream = errors.New("llm upstream error")
	// ErrMalformedResponse means the LLM answered 200 but the payload did not fit the schema.
	ErrMalformedResponse = errors.New("llm response malformed")
)

type Result struct {
	ExtractedInfo entity.PartialPatientContext
	ReplyText     string
}

type IExtractor interface {
	Extract(ctx context.Context, message string, prior entity.PatientContext) (*Result, error)
}

type Extractor struct {
	provider llm.LLMProvider
	policy   retry.Policy
	logger   logger.ILogger
}

// NewExtractor wires a provider to a retry policy. A policy without a Retryable
// predicate retries on IsTransient.
func NewExtractor(provider llm.LLMProvider, policy retry.Policy, log logger.ILogger) *Extractor {
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &Extractor{provider: provider, policy: policy, logger: log}
}

// IsTransient reports whether an LLM call failure is worth another attempt:
// HTTP 503, a transport failure, or an attempt that ran out of time.
func IsTransient(err error) bool {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusServiceUnavailable
	}
	var transportErr *llm.TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	return errors.Is(err, retry.ErrAttemptTimeout)
}

func (e *Extractor) Extract(ctx context.Context, message string, prior entity.PatientContext) (*Result, error) {
	prompt, err := BuildPrompt(message, prior)
	if err != nil {
		return nil, err
	}

	policy := e.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		e.logger.Warn(logModule, "LLM call failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
	}

	text, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		return e.provider.Generate(ctx, prompt)
	})
	if err != nil {
		return nil, e.classify(ctx, err)
	}

	result, err := ParseReply(text)
	if err != nil {
		e.logger.Error(logModule, "LLM reply did not match schema", map[string]interface{}{
			"kind":  "malformed_response",
			"error": err.Error(),
		})
		return nil, err
	}

	return result, nil
}

func (e *Extractor) classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return err
	case errors.Is(err, retry.ErrExhausted):
		var exhausted *retry.ExhaustedError
		attempts := 0
		if errors.As(err, &exhausted) {
			attempts = exhausted.Attempts
		}
		e.logger.Error(logModule, "LLM upstream exhausted", map[string]interface{}{
			"kind":     "upstream_exhausted",
			"attempts": attempts,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrUpstreamExhausted, err)
	case errors.Is(err, llm.ErrEmptyCandidate):
		e.logger.Error(logModule, "LLM reply has no usable text", map[string]interface{}{
			"kind":  "malformed_response",
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	default:
		e.logger.Error(logModule, "LLM upstream rejected the request", map[string]interface{}{
			"kind":  "upstream_error",
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}

package chat

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/telemetry"
)

const oracleRetryBaseDelay = 300 * time.Millisecond

// retryingGenerator retries the oracle once on transient failures.
type retryingGenerator struct {
	base       llm.Generator
	documentID string
}

func newRetryingGenerator(base llm.Generator, documentID string) llm.Generator {
	if base == nil {
		return nil
	}
	return retryingGenerator{base: base, documentID: documentID}
}

func (r retryingGenerator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	out, err := r.base.Answer(ctx, question, passages)
	if err == nil || !shouldRetryOracle(err) {
		return out, err
	}
	if err := r.wait(ctx, err); err != nil {
		return "", err
	}
	return r.base.Answer(ctx, question, passages)
}

func (r retryingGenerator) Summarize(ctx context.Context, req llm.SummaryRequest) (string, error) {
	out, err := r.base.Summarize(ctx, req)
	if err == nil || !shouldRetryOracle(err) {
		return out, err
	}
	if err := r.wait(ctx, err); err != nil {
		return "", err
	}
	return r.base.Summarize(ctx, req)
}

func (r retryingGenerator) wait(ctx context.Context, cause error) error {
	telemetry.Info("oracle retry", map[string]any{
		"documentId": r.documentID,
		"error":      cause.Error(),
	})
	select {
	case <-time.After(oracleRetryBaseDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shouldRetryOracle(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

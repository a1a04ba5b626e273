package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docchat-backend/internal/chunks"
	"docchat-backend/internal/conversations"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/llm"
	"docchat-backend/internal/quota"
	"docchat-backend/internal/retrieval"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/summaries"
)

const (
	// DefaultTopK is how many chunks ground an answer when the caller
	// does not override it.
	DefaultTopK = 4
	// DefaultOracleTimeout bounds one oracle round trip.
	DefaultOracleTimeout = 60 * time.Second

	maxQuestionLen = 4000
)

// Service orchestrates the ask and summarize flows: reserve quota, run
// retrieval and the oracle, persist the result, refund on any failure
// after the reservation succeeded.
type Service struct {
	Docs      documents.Repo
	Chunks    chunks.Repo
	Turns     conversations.Repo
	Summaries summaries.Repo
	Quota     *quota.Ledger
	Gen       llm.Generator
	// Scorer overrides the default lexical scorer used for retrieval.
	Scorer        retrieval.Scorer
	TopK          int
	OracleTimeout time.Duration
}

// AskResult is the outcome of one answered question.
type AskResult struct {
	Answer         string        `json:"answer"`
	GroundedChunks []int         `json:"groundedChunks"`
	Confidence     float64       `json:"confidence"`
	TokensCharged  int64         `json:"tokensCharged"`
	Account        quota.Account `json:"usage"`
}

func (s *Service) topK() int {
	if s.TopK > 0 {
		return s.TopK
	}
	return DefaultTopK
}

func (s *Service) oracleTimeout() time.Duration {
	if s.OracleTimeout > 0 {
		return s.OracleTimeout
	}
	return DefaultOracleTimeout
}

// readyDocument loads the document and refuses unprocessed ones.
func (s *Service) readyDocument(ctx context.Context, userID, documentID string) (documents.Document, error) {
	doc, err := s.Docs.GetByID(ctx, userID, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if !doc.Processed {
		return documents.Document{}, documents.ErrNotReady
	}
	return doc, nil
}

// refund reverses a reservation. A failed refund leaves the user
// charged for work that never completed, so it is logged and counted;
// the original failure stays the reported one.
func (s *Service) refund(userID string, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.Quota.Refund(ctx, userID, quota.KindText, amount); err != nil {
		metrics.IncRefundFailed()
		telemetry.Error("quota refund failed", map[string]any{
			"user_id": userID,
			"kind":    string(quota.KindText),
			"amount":  amount,
			"error":   err.Error(),
		})
	}
}

// Ask answers a question about a processed document. The text-kind cost
// is the estimated token count of the question. On any failure after
// the reservation, including caller cancellation mid-oracle, the
// reservation is refunded.
func (s *Service) Ask(ctx context.Context, userID, documentID, question string) (AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" || utf8.RuneCountInString(question) > maxQuestionLen {
		return AskResult{}, ErrInvalidQuestion
	}

	if _, err := s.readyDocument(ctx, userID, documentID); err != nil {
		return AskResult{}, err
	}

	started := time.Now()
	cost := estimateTokens(question)
	ok, account, err := s.Quota.CheckAndReserve(ctx, userID, quota.KindText, cost)
	if err != nil {
		return AskResult{}, err
	}
	if !ok {
		metrics.IncQuotaRejected()
		return AskResult{Account: account}, ErrQuotaExhausted
	}

	result, err := s.answer(ctx, userID, documentID, question)
	if err != nil {
		s.refund(userID, cost)
		metrics.IncAskFailed()
		return AskResult{}, err
	}

	result.TokensCharged = cost
	result.Account = account
	metrics.IncAsk()
	metrics.ObserveAskDurationMs(float64(time.Since(started).Milliseconds()))
	return result, nil
}

func (s *Service) answer(ctx context.Context, userID, documentID, question string) (AskResult, error) {
	retriever := &retrieval.Retriever{Chunks: s.Chunks, Scorer: s.Scorer}
	ranked, err := retriever.Retrieve(ctx, documentID, question, s.topK())
	if err != nil {
		return AskResult{}, err
	}

	passages := make([]string, len(ranked))
	grounded := make([]int, len(ranked))
	for i, sc := range ranked {
		passages[i] = sc.Chunk.Content
		grounded[i] = sc.Chunk.Index
	}
	confidence := ranked[0].Score

	askedAt := time.Now().UTC()
	oracleCtx, cancel := context.WithTimeout(ctx, s.oracleTimeout())
	defer cancel()

	gen := newRetryingGenerator(s.Gen, documentID)
	answerText, err := gen.Answer(oracleCtx, question, passages)
	if err != nil {
		return AskResult{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	answeredAt := time.Now().UTC()
	if !answeredAt.After(askedAt) {
		answeredAt = askedAt.Add(time.Millisecond)
	}

	userTurn := conversations.Turn{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Role:       conversations.RoleUser,
		Content:    question,
		CreatedAt:  askedAt,
	}
	assistantTurn := conversations.Turn{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		UserID:         userID,
		Role:           conversations.RoleAssistant,
		Content:        answerText,
		GroundedChunks: grounded,
		Confidence:     &confidence,
		CreatedAt:      answeredAt,
	}
	if err := s.Turns.AppendExchange(ctx, userTurn, assistantTurn); err != nil {
		return AskResult{}, err
	}

	return AskResult{
		Answer:         answerText,
		GroundedChunks: grounded,
		Confidence:     confidence,
	}, nil
}

// Summarize generates a summary in the given mode over the whole
// document and appends it to the summary history. The text-kind cost is
// the estimated token count of the document's chunk contents. The
// account snapshot is returned alongside so a refused reservation can
// surface the remaining balance.
func (s *Service) Summarize(ctx context.Context, userID, documentID string, mode summaries.Mode) (summaries.Summary, quota.Account, error) {
	if _, err := s.readyDocument(ctx, userID, documentID); err != nil {
		return summaries.Summary{}, quota.Account{}, err
	}

	list, err := s.Chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return summaries.Summary{}, quota.Account{}, err
	}
	passages := make([]string, len(list))
	for i, c := range list {
		passages[i] = c.Content
	}

	cost := estimateTokensAll(passages)
	ok, account, err := s.Quota.CheckAndReserve(ctx, userID, quota.KindText, cost)
	if err != nil {
		return summaries.Summary{}, quota.Account{}, err
	}
	if !ok {
		metrics.IncQuotaRejected()
		return summaries.Summary{}, account, ErrQuotaExhausted
	}

	summary, err := s.buildSummary(ctx, userID, documentID, mode, passages)
	if err != nil {
		s.refund(userID, cost)
		metrics.IncSummaryFailed()
		return summaries.Summary{}, account, err
	}
	metrics.IncSummary()
	return summary, account, nil
}

func (s *Service) buildSummary(ctx context.Context, userID, documentID string, mode summaries.Mode, passages []string) (summaries.Summary, error) {
	oracleCtx, cancel := context.WithTimeout(ctx, s.oracleTimeout())
	defer cancel()

	builder := &summaries.Service{Gen: newRetryingGenerator(s.Gen, documentID)}
	content, wordCount, err := builder.Build(oracleCtx, mode, passages)
	if err != nil {
		return summaries.Summary{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	summary := summaries.Summary{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Mode:       mode,
		Content:    content,
		WordCount:  wordCount,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Summaries.Create(ctx, summary); err != nil {
		return summaries.Summary{}, err
	}
	return summary, nil
}

// History returns the conversation for a document in ascending
// timestamp order.
func (s *Service) History(ctx context.Context, userID, documentID string, limit, offset int) ([]conversations.Turn, error) {
	if _, err := s.Docs.GetByID(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.Turns.ListByDocument(ctx, userID, documentID, limit, offset)
}

// LatestSummary returns the newest summary for a document and mode.
func (s *Service) LatestSummary(ctx context.Context, userID, documentID string, mode summaries.Mode) (summaries.Summary, error) {
	if _, err := s.Docs.GetByID(ctx, userID, documentID); err != nil {
		return summaries.Summary{}, err
	}
	return s.Summaries.LatestByMode(ctx, userID, documentID, mode)
}

// Usage returns the caller's account snapshot, applying a due cycle
// reset first.
func (s *Service) Usage(ctx context.Context, userID string) (quota.Account, error) {
	return s.Quota.Get(ctx, userID)
}

// ResetUsage forcibly refills the account. Exposed on the dev surface
// only.
func (s *Service) ResetUsage(ctx context.Context, userID string) (quota.Account, error) {
	return s.Quota.Reset(ctx, userID)
}

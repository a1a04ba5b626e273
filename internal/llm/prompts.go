package llm

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/answer.txt
	answerPrompt string
	//go:embed prompts/summary.txt
	summaryPrompt string
)

// BuildAnswerPrompt renders the grounded question-answering prompt.
func BuildAnswerPrompt(question string, passages []string) string {
	var excerpts strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&excerpts, "[%d] %s\n", i+1, strings.TrimSpace(p))
	}
	return fmt.Sprintf(answerPrompt, excerpts.String(), strings.TrimSpace(question))
}

// BuildSummaryPrompt renders the summarization prompt for a request.
func BuildSummaryPrompt(req SummaryRequest) string {
	var extra strings.Builder
	if req.Bulleted {
		extra.WriteString("Format the summary as bullet points, one per line starting with \"- \", each at most 40 words. ")
	} else {
		fmt.Fprintf(&extra, "The summary must be between %d and %d words. ", req.MinWords, req.MaxWords)
	}
	if req.Attempt > 1 {
		extra.WriteString("The previous attempt missed the length contract; count words carefully this time.")
	}
	return fmt.Sprintf(summaryPrompt,
		req.Mode,
		strings.TrimSpace(extra.String()),
		strings.Join(req.Passages, "\n\n"),
	)
}

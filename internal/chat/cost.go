package chat

import "unicode/utf8"

// runesPerToken approximates the tokenizer ratio for English prose.
const runesPerToken = 4

// estimateTokens approximates the token cost of a text. Always at
// least 1 so a reservation is never free.
func estimateTokens(text string) int64 {
	n := int64(utf8.RuneCountInString(text)) / runesPerToken
	if n < 1 {
		n = 1
	}
	return n
}

func estimateTokensAll(texts []string) int64 {
	var total int64
	for _, t := range texts {
		total += estimateTokens(t)
	}
	if total < 1 {
		total = 1
	}
	return total
}

package conversations

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a document's conversation. Assistant turns
// carry the chunk indices used as grounding evidence and the confidence
// of the top-ranked chunk actually used.
type Turn struct {
	ID             string    `json:"turnId"`
	DocumentID     string    `json:"documentId"`
	UserID         string    `json:"-"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	GroundedChunks []int     `json:"groundedChunks,omitempty"`
	Confidence     *float64  `json:"confidence,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

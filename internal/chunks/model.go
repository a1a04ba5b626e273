package chunks

// Chunk is a contiguous span of a document's extracted text, the atomic
// unit of retrieval. Indices for a document are dense 0..N-1.
type Chunk struct {
	DocumentID string
	Index      int
	Page       int
	Content    string
}

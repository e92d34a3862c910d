package entity

// EmbedRequest is the wire format of the embedding service
// (OpenAI-compatible POST /embeddings with a batched input).
type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbedData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type EmbedResponse struct {
	Data []EmbedData `json:"data"`
}

package entity

// GenerationRequest asks the generation service for an answer conditioned on
// retrieved context and prior conversation turns.
type GenerationRequest struct {
	Model    string        `json:"model"`
	System   string        `json:"system,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

type GenerationResponse struct {
	Answer string `json:"answer"`
}

// ExpandRequest asks the generation service for lexically diverse
// paraphrases of a question.
type ExpandRequest struct {
	Model    string `json:"model"`
	Question string `json:"question"`
	Count    int    `json:"count"`
}

type ExpandResponse struct {
	Variants []string `json:"variants"`
}

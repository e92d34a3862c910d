package answer

import "github.com/docqa/rag-backend/internal/entity"

func toGenerateAnswerResponse(userID string, req *entity.GenerateAnswerRequest, ans *entity.Answer) *entity.GenerateAnswerResponse {
	messages := append([]entity.ChatMessage{}, req.Messages...)
	messages = append(messages, entity.ChatMessage{
		Role:    entity.RoleAssistant,
		Content: ans.Text,
	})

	return &entity.GenerateAnswerResponse{
		UserID:          userID,
		Messages:        messages,
		Answer:          ans.Text,
		Sources:         ans.Sources,
		ExpandedQueries: ans.ExpandedQueries,
	}
}

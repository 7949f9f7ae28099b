package api

import (
	"lilith-backend/internal/database"
	"lilith-backend/pkg/api"
)

func convertMessage(m database.Message) api.MessageItem {
	return api.MessageItem{
		ID:        m.ID,
		Text:      m.Text,
		IsUser:    m.IsUser,
		Timestamp: m.CreatedAt,
	}
}

func convertMessages(ms []database.Message) []api.MessageItem {
	messages := make([]api.MessageItem, 0, len(ms))
	for _, m := range ms {
		messages = append(messages, convertMessage(m))
	}
	return messages
}

func convertSession(s database.Session, messages []database.Message) api.SessionResponse {
	return api.SessionResponse{
		SessionID:   s.ID,
		SessionName: s.Name,
		Messages:    convertMessages(messages),
	}
}

func convertSessionSummary(s database.SessionSummary) api.SessionSummary {
	return api.SessionSummary{
		SessionID:    s.ID,
		SessionName:  s.Name,
		CreatedAt:    s.CreatedAt,
		MessageCount: s.MessageCount,
	}
}

func convertSessionSummaries(ss []database.SessionSummary) []api.SessionSummary {
	summaries := make([]api.SessionSummary, 0, len(ss))
	for _, s := range ss {
		summaries = append(summaries, convertSessionSummary(s))
	}
	return summaries
}

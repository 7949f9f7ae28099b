package api

import (
	"encoding/json"
	"time"
)

type MessageItem struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionResponse struct {
	SessionID   uint          `json:"sessionId"`
	SessionName string        `json:"sessionName"`
	Messages    []MessageItem `json:"messages"`
}

// ChatRequest.SessionID is kept raw because clients send it either as a
// number or as a numeric string.
type ChatRequest struct {
	Message   string          `json:"message"`
	SessionID json.RawMessage `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID uint   `json:"sessionId"`
}

type SessionSummary struct {
	SessionID    uint      `json:"sessionId"`
	SessionName  string    `json:"sessionName"`
	CreatedAt    time.Time `json:"createdAt"`
	MessageCount int64     `json:"messageCount"`
}

type ListSessionsRequest struct {
	Limit  *int `schema:"limit"`
	Offset *int `schema:"offset"`
}

type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type CreateSessionRequest struct {
	Name string `json:"name"`
}

type RenameSessionRequest struct {
	Name string `json:"name"`
}

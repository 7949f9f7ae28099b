package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lilith-backend/internal/auth"
	"lilith-backend/internal/chat"
	"lilith-backend/internal/core"
	"lilith-backend/internal/users"
	"lilith-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSessionsLimit = 20
	maxSessionsLimit     = 100
)

var errInvalidSessionID = core.Validationf("invalid sessionId format")

type ChatService struct {
	users   *users.Store
	tokens  *auth.TokenService
	manager *chat.SessionManager
}

func NewChatService(users *users.Store, tokens *auth.TokenService, manager *chat.SessionManager) *ChatService {
	return &ChatService{users: users, tokens: tokens, manager: manager}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.tokens))
		r.Post("/api/chat", RestHandler(s.Chat))
		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListSessions))
			r.Post("/", RestHandler(s.CreateSession))
			r.Get("/current", RestHandler(s.GetCurrentSession))
			r.Get("/{session_id}", RestHandler(s.GetSession))
			r.Post("/{session_id}/rename", RestHandler(s.RenameSession))
			r.Delete("/{session_id}", RestHandler(s.DeleteSession))
		})
	})
}

// hideOwnership reports sessions owned by someone else exactly like missing
// ones.
func hideOwnership(err error) error {
	if errors.Is(err, core.ErrForbidden) || errors.Is(err, core.ErrNotFound) {
		return core.NotFoundf("session not found or access denied")
	}
	return err
}

// parseSessionID accepts a JSON integer or a string holding one. An absent or
// null value means the current session.
func parseSessionID(raw json.RawMessage) (*uint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errInvalidSessionID
		}
		text = strings.TrimSpace(text)
	} else {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var number json.Number
		if err := decoder.Decode(&number); err != nil {
			return nil, errInvalidSessionID
		}
		text = number.String()
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return nil, errInvalidSessionID
	}

	sessionID := uint(id)
	return &sessionID, nil
}

func (s *ChatService) Chat(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, core.Validationf("message is empty")
	}

	sessionID, err := parseSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.manager.Chat(r.Context(), user, sessionID, req.Message)
	if err != nil {
		return nil, hideOwnership(err)
	}

	return api.ChatResponse{Response: result.Reply, SessionID: result.SessionID}, nil
}

func (s *ChatService) GetCurrentSession(r *http.Request) (any, error) {
	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	session, messages, err := s.manager.CurrentSession(r.Context(), user)
	if err != nil {
		return nil, err
	}

	return convertSession(session, messages), nil
}

func (s *ChatService) ListSessions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListSessionsRequest](r)
	if err != nil {
		return nil, err
	}

	limit, offset := defaultSessionsLimit, 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	if params.Offset != nil {
		offset = *params.Offset
	}
	if limit < 1 || limit > maxSessionsLimit {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must be between 1 and %d", maxSessionsLimit)
	}
	if offset < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "offset must not be negative")
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	summaries, err := s.manager.Store().ListSessions(r.Context(), user.ID, limit, offset)
	if err != nil {
		return nil, err
	}

	return api.ListSessionsResponse{Sessions: convertSessionSummaries(summaries)}, nil
}

func (s *ChatService) CreateSession(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreateSessionRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	session, err := s.manager.Store().CreateSession(r.Context(), user.ID, req.Name)
	if err != nil {
		return nil, err
	}

	return WithStatus(http.StatusCreated, api.SessionSummary{
		SessionID:   session.ID,
		SessionName: session.Name,
		CreatedAt:   session.CreatedAt,
	}), nil
}

func (s *ChatService) GetSession(r *http.Request) (any, error) {
	sessionID, err := URLParamUint(r, "session_id")
	if err != nil {
		return nil, err
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	session, messages, err := s.manager.SessionHistory(r.Context(), user, sessionID)
	if err != nil {
		return nil, hideOwnership(err)
	}

	return convertSession(session, messages), nil
}

func (s *ChatService) RenameSession(r *http.Request) (any, error) {
	sessionID, err := URLParamUint(r, "session_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.RenameSessionRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	store := s.manager.Store()
	session, err := store.RenameSession(r.Context(), sessionID, user.ID, req.Name)
	if err != nil {
		return nil, hideOwnership(err)
	}

	count, err := store.CountMessages(r.Context(), session.ID)
	if err != nil {
		return nil, err
	}

	return api.SessionSummary{
		SessionID:    session.ID,
		SessionName:  session.Name,
		CreatedAt:    session.CreatedAt,
		MessageCount: count,
	}, nil
}

func (s *ChatService) DeleteSession(r *http.Request) (any, error) {
	sessionID, err := URLParamUint(r, "session_id")
	if err != nil {
		return nil, err
	}

	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	if err := s.manager.Store().DeleteSession(r.Context(), sessionID, user.ID); err != nil {
		return nil, hideOwnership(err)
	}

	return nil, nil
}

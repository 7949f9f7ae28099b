package chat

import (
	"gorm.io/gorm"
)

// SessionManager ties the store and the responder together for the
// operations that touch more than one row.
type SessionManager struct {
	store     *Store
	responder *Responder
}

func NewSessionManager(db *gorm.DB, responder *Responder) *SessionManager {
	if responder == nil {
		responder = NewDefaultResponder()
	}
	return &SessionManager{
		store:     NewStore(db),
		responder: responder,
	}
}

func (manager *SessionManager) Store() *Store {
	return manager.store
}

func (manager *SessionManager) Responder() *Responder {
	return manager.responder
}

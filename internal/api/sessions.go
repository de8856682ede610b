package api

import (
	"github.com/google/uuid"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

// Sessions keeps bearer tokens in memory. Tokens die with the process.
type Sessions struct {
	cache *gocache.Cache
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{cache: gocache.New(ttl, ttl/2)}
}

func (s *Sessions) Create(session models.Session) string {
	token := uuid.NewString()
	s.cache.SetDefault(token, session)
	return token
}

func (s *Sessions) Get(token string) (models.Session, bool) {
	value, found := s.cache.Get(token)
	if !found {
		return models.Session{}, false
	}
	return value.(models.Session), true
}

func (s *Sessions) Delete(token string) {
	s.cache.Delete(token)
}

// DeleteUser drops every token of the user.
func (s *Sessions) DeleteUser(userID string) {
	for token, item := range s.cache.Items() {
		if session, ok := item.Object.(models.Session); ok && session.UserID == userID {
			s.cache.Delete(token)
		}
	}
}

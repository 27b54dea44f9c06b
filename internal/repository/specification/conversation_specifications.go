package specification

import (
	"virtual-doctor-be/internal/entity"

	"gorm.io/gorm"
)

// Matcher is implemented by specifications that can also filter in memory.
type Matcher interface {
	Matches(c *entity.Conversation) bool
}

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

func (s BySessionID) Matches(c *entity.Conversation) bool {
	return c.SessionId == s.SessionID
}

type ByUserID struct {
	UserID string
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

func (s ByUserID) Matches(c *entity.Conversation) bool {
	return c.UserId == s.UserID
}

package specification

import "gorm.io/gorm"

// Specification defines the interface for query specifications.
// In-memory repositories evaluate the same specification through Matcher.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

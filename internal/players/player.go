// Package players defines the Player resource and its storage.
package players

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agentstation/roster/pkg/errors"
)

// Player is a single roster entry. ID is assigned by the storage layer on
// insert and never changes afterwards.
type Player struct {
	ID       *uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Number   int32      `gorm:"not null" json:"number"`
	Name     string     `gorm:"not null" json:"name"`
	Username string     `gorm:"uniqueIndex;not null" json:"username"`
	Email    *string    `json:"email"`
}

// TableName maps Player onto the existing player table.
func (Player) TableName() string {
	return "player"
}

// Validate reports the first missing required field.
func (p *Player) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewValidationError("name", p.Name, "must not be empty")
	}
	if strings.TrimSpace(p.Username) == "" {
		return errors.NewValidationError("username", p.Username, "must not be empty")
	}
	return nil
}

// BeforeCreate validates the row and assigns a fresh random id. Any id
// supplied by the caller is discarded.
func (p *Player) BeforeCreate(_ *gorm.DB) error {
	if err := p.Validate(); err != nil {
		return err
	}
	id := uuid.New()
	p.ID = &id
	return nil
}

// Key returns the id as a string, or "" for an unsaved player.
func (p Player) Key() string {
	if p.ID == nil {
		return ""
	}
	return p.ID.String()
}

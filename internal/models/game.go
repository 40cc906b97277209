package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is created on first contact and never changes afterwards,
// except for the timezone which follows the client.
type Player struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ChatID         string         `gorm:"uniqueIndex;size:64" json:"chat_id"`
	PlayerName     string         `gorm:"size:128" json:"player_name"`
	PlayerLanguage string         `gorm:"size:8" json:"player_language"`
	Timezone       string         `gorm:"size:64" json:"timezone"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Session is a single run of the game. Exactly one active session
// exists per player at any time.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlayerID     uint      `gorm:"index" json:"player_id"`
	Day          int       `json:"day"`
	Pet          string    `gorm:"size:32" json:"pet"`
	Active       bool      `gorm:"index" json:"active"`
	Interactions []string  `gorm:"serializer:json;type:jsonb" json:"interactions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PopulationStatus holds per-category headcounts for a structure.
// Missing keys count as zero.
type PopulationStatus map[string]int

// Structure is a per-session location whose population composition is
// mutated by allow decisions.
type Structure struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	SessionID  uint             `gorm:"index" json:"session_id"`
	TemplateID string           `gorm:"size:64;index" json:"template_id"`
	Name       string           `gorm:"size:128" json:"name"`
	Active     bool             `json:"active"`
	Status     PopulationStatus `gorm:"serializer:json;type:jsonb" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Reputation holds the hidden faction-influence counters for a session.
// Each counter stays within [0,10].
type Reputation struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	SessionID   uint      `gorm:"uniqueIndex" json:"-"`
	Cult        int       `json:"cult"`
	Inquisition int       `json:"inquisition"`
	Undead      int       `json:"undead"`
	UpdatedAt   time.Time `json:"-"`
}

// InventoryItem is one consumable counter for a session. Counts never
// go negative.
type InventoryItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"index:idx_inventory_session_name,unique" json:"session_id"`
	Name      string    `gorm:"size:64;index:idx_inventory_session_name,unique" json:"name"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"-"`
}

// Dialog carries the narrative variants for a traveler encounter.
type Dialog struct {
	Greeting       string `json:"greeting,omitempty"`
	Papers         string `json:"papers,omitempty"`
	HolyWater      string `json:"holy_water,omitempty"`
	MedicinalHerbs string `json:"medicinal_herbs,omitempty"`
	In             string `json:"in,omitempty"`
	Out            string `json:"out,omitempty"`
	Execution      string `json:"execution,omitempty"`
	Trigger        string `json:"trigger,omitempty"`
}

// TravelerData is the fixed narrative payload of an encounter. Effect
// strings use the "key signedInt" mini-language.
type TravelerData struct {
	Name                string `json:"name"`
	Faction             string `json:"faction"`
	Art                 string `json:"art"`
	IsFixed             bool   `json:"is_fixed"`
	Description         string `json:"description,omitempty"`
	Dialog              Dialog `json:"dialog"`
	EffectIn            string `json:"effect_in,omitempty"`
	EffectOut           string `json:"effect_out,omitempty"`
	EffectEx            string `json:"effect_ex,omitempty"`
	EffectInHidden      string `json:"effect_in_hidden,omitempty"`
	StructureTemplateID string `json:"structure_template_id,omitempty"`
}

// Traveler is a generated encounter for a specific day and position.
// It is mutated exactly once: marked complete with a recorded decision.
type Traveler struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SessionID uint         `gorm:"index:idx_traveler_session_day" json:"session_id"`
	Day       int          `gorm:"index:idx_traveler_session_day" json:"day"`
	Position  int          `json:"position"`
	Complete  bool         `json:"complete"`
	Decision  string       `gorm:"size:32" json:"decision,omitempty"`
	Data      TravelerData `gorm:"serializer:json;type:jsonb" json:"traveler"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Event is an append-only log entry for a session. Only the most
// recent entries are shown to the player.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"index" json:"session_id"`
	Event     string    `gorm:"column:event;type:text" json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

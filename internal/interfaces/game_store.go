package interfaces

import (
	"context"
	"errors"

	"gatewarden/internal/models"
)

// Sentinel errors shared between the storage implementations and the
// HTTP layer, which maps them onto status codes.
var (
	// ErrNotFound is returned when no matching record exists.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyComplete is returned when a decision is resubmitted for
	// a traveler that has already been completed.
	ErrAlreadyComplete = errors.New("traveler already complete")
	// ErrItemDepleted is returned when a consumable interaction is used
	// with no backing item left.
	ErrItemDepleted = errors.New("item depleted")
)

// TriggerBundle is the set of side effects a scripted encounter applies
// in a single transaction: item grants, a structure activation and an
// interaction unlock, plus one narrative event.
type TriggerBundle struct {
	GrantItems          map[string]int
	ActivateStructureID string
	UnlockInteraction   string
	Event               string
}

// GameStore is the persistence boundary for the game. The Postgres
// store implements it for production; an in-memory store backs local
// runs and tests.
type GameStore interface {
	// Players
	GetPlayerByChatID(ctx context.Context, chatID string) (*models.Player, error)
	CreatePlayer(ctx context.Context, player *models.Player) error
	SavePlayer(ctx context.Context, player *models.Player) error

	// Sessions
	GetActiveSession(ctx context.Context, playerID uint) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	SaveSession(ctx context.Context, session *models.Session) error

	// Structures
	ListStructures(ctx context.Context, sessionID uint) ([]models.Structure, error)
	GetStructureByTemplate(ctx context.Context, sessionID uint, templateID string) (*models.Structure, error)
	CreateStructures(ctx context.Context, structures []models.Structure) error
	SaveStructure(ctx context.Context, structure *models.Structure) error

	// Hidden reputation
	GetReputation(ctx context.Context, sessionID uint) (*models.Reputation, error)
	CreateReputation(ctx context.Context, rep *models.Reputation) error
	SaveReputation(ctx context.Context, rep *models.Reputation) error

	// Inventory
	ListInventory(ctx context.Context, sessionID uint) ([]models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, sessionID uint, name string) (*models.InventoryItem, error)
	SaveInventoryItem(ctx context.Context, item *models.InventoryItem) error

	// Travelers
	CreateTravelers(ctx context.Context, travelers []models.Traveler) error
	ListTravelers(ctx context.Context, sessionID uint, day int) ([]models.Traveler, error)
	GetTraveler(ctx context.Context, id uint) (*models.Traveler, error)
	SaveTraveler(ctx context.Context, traveler *models.Traveler) error
	CountCompletedTravelers(ctx context.Context, sessionID uint, day int) (int64, error)

	// Events
	AppendEvent(ctx context.Context, event *models.Event) error
	ListRecentEvents(ctx context.Context, sessionID uint, limit int) ([]models.Event, error)

	// ApplyTriggerBundle applies all side effects of a scripted
	// encounter atomically.
	ApplyTriggerBundle(ctx context.Context, sessionID uint, bundle TriggerBundle) error
}

// EventSink receives game events as they are appended, for live
// delivery to connected clients.
type EventSink interface {
	PublishEvent(chatID string, event models.Event)
}

// EventCache caches the recent-event list and per-session interaction
// sets so state fetches avoid a database round trip.
type EventCache interface {
	PushEvent(ctx context.Context, sessionID uint, text string) error
	RecentEvents(ctx context.Context, sessionID uint, limit int64) ([]string, error)
	SetInteractions(ctx context.Context, sessionID uint, interactions []string) error
	GetInteractions(ctx context.Context, sessionID uint) ([]string, error)
}

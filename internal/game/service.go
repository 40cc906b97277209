package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gatewarden/internal/config"
	"gatewarden/internal/interfaces"
	"gatewarden/internal/models"
)

// NotEligibleError is returned when a day advance is attempted before
// every traveler of the current day has been completed.
type NotEligibleError struct {
	Completed int
	Required  int
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("day not complete: %d of %d travelers processed", e.Completed, e.Required)
}

// Snapshot is the full client-facing game state for a session.
type Snapshot struct {
	Player                *models.Player          `json:"player"`
	Session               *models.Session         `json:"session"`
	Population            models.PopulationStatus `json:"population"`
	HiddenReputation      *models.Reputation      `json:"hidden_reputation"`
	Inventory             map[string]int          `json:"inventory"`
	AvailableInteractions []string                `json:"available_interactions"`
	Events                []models.Event          `json:"events"`
	Travelers             []models.Traveler       `json:"travelers"`
	Pet                   string                  `json:"pet,omitempty"`
}

// DecisionResult carries the state a decision may have changed.
type DecisionResult struct {
	Population       models.PopulationStatus `json:"population"`
	HiddenReputation *models.Reputation      `json:"hidden_reputation"`
}

// GameService orchestrates the decision engine, day progression and
// persistence. Cache and sink are optional; a nil cache falls back to
// the store and a nil sink drops live events.
type GameService struct {
	store interfaces.GameStore
	cache interfaces.EventCache
	sink  interfaces.EventSink
	cfg   config.GameConfig
	rng   *rand.Rand
}

func NewGameService(store interfaces.GameStore, cache interfaces.EventCache, sink interfaces.EventSink, cfg config.GameConfig) *GameService {
	return &GameService{
		store: store,
		cache: cache,
		sink:  sink,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetEventSink attaches the live event sink after construction. The
// hub is built in the web layer, which depends on the service.
func (s *GameService) SetEventSink(sink interfaces.EventSink) {
	s.sink = sink
}

// AuthCheck registers the player on first contact and returns the full
// game snapshot, or reports that a pet still needs to be selected. An
// existing player's timezone follows the client; nothing else changes.
func (s *GameService) AuthCheck(ctx context.Context, chatID, playerName, playerLanguage, timezone string) (*Snapshot, bool, error) {
	player, err := s.store.GetPlayerByChatID(ctx, chatID)
	if errors.Is(err, interfaces.ErrNotFound) {
		player = &models.Player{
			ChatID:         chatID,
			PlayerName:     playerName,
			PlayerLanguage: playerLanguage,
			Timezone:       timezone,
		}
		if err := s.store.CreatePlayer(ctx, player); err != nil {
			return nil, false, fmt.Errorf("failed to create player: %w", err)
		}
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if timezone != "" && timezone != player.Timezone {
		player.Timezone = timezone
		if err := s.store.SavePlayer(ctx, player); err != nil {
			return nil, false, fmt.Errorf("failed to update timezone: %w", err)
		}
	}

	session, err := s.store.GetActiveSession(ctx, player.ID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	snapshot, err := s.buildSnapshot(ctx, player, session)
	if err != nil {
		return nil, false, err
	}
	return snapshot, false, nil
}

// SelectPet creates the player's first session: structures, hidden
// reputation, starting inventory and the traveler schedule for the
// whole run are all seeded here.
func (s *GameService) SelectPet(ctx context.Context, chatID, pet string) (*Snapshot, error) {
	player, err := s.store.GetPlayerByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	session, err := s.store.GetActiveSession(ctx, player.ID)
	if err == nil {
		// A run is already going; only the companion changes.
		session.Pet = pet
		if err := s.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to update pet: %w", err)
		}
		return s.buildSnapshot(ctx, player, session)
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	session = &models.Session{
		PlayerID:     player.ID,
		Day:          1,
		Pet:          pet,
		Active:       true,
		Interactions: DefaultInteractions(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	structures := StructureTemplates()
	for i := range structures {
		structures[i].SessionID = session.ID
	}
	if err := s.store.CreateStructures(ctx, structures); err != nil {
		return nil, fmt.Errorf("failed to create structures: %w", err)
	}

	if err := s.store.CreateReputation(ctx, &models.Reputation{SessionID: session.ID}); err != nil {
		return nil, fmt.Errorf("failed to create reputation: %w", err)
	}

	for name, count := range s.cfg.StartingInventory {
		item := &models.InventoryItem{SessionID: session.ID, Name: name, Count: count}
		if err := s.store.SaveInventoryItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to seed inventory: %w", err)
		}
	}

	travelers := GenerateRun(s.rng, session.ID, s.cfg.Days, s.cfg.TravelersPerDay)
	if err := s.store.CreateTravelers(ctx, travelers); err != nil {
		return nil, fmt.Errorf("failed to generate travelers: %w", err)
	}

	s.appendEvent(ctx, chatID, session.ID, "Day 1 begins. The gate of Gravenmoor is yours to keep.")

	return s.buildSnapshot(ctx, player, session)
}

// DayTravelers returns the traveler set for a day together with the
// available and currently usable interaction sets.
func (s *GameService) DayTravelers(ctx context.Context, chatID string, day int) ([]models.Traveler, []string, []string, error) {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, nil, nil, err
	}

	travelers, err := s.store.ListTravelers(ctx, session.ID, day)
	if err != nil {
		return nil, nil, nil, err
	}

	inventory, err := s.inventoryMap(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	available := s.availableInteractions(ctx, session)
	return travelers, available, UsableInteractions(available, inventory), nil
}

// SubmitDecision resolves a player verdict on a traveler, persists the
// effect deltas and marks the traveler complete. Resubmitting a
// decision for a completed traveler is rejected.
func (s *GameService) SubmitDecision(ctx context.Context, chatID string, travelerID uint, decision Decision) (*DecisionResult, error) {
	player, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	traveler, err := s.store.GetTraveler(ctx, travelerID)
	if err != nil {
		return nil, err
	}
	if traveler.SessionID != session.ID {
		return nil, interfaces.ErrNotFound
	}
	if traveler.Complete {
		return nil, interfaces.ErrAlreadyComplete
	}

	rep, err := s.store.GetReputation(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var structure *models.Structure
	if decision == DecisionAllow {
		templateID := traveler.Data.StructureTemplateID
		if templateID == "" {
			templateID = TownTemplateID
		}
		structure, err = s.store.GetStructureByTemplate(ctx, session.ID, templateID)
		if err != nil {
			return nil, err
		}
	}

	var status models.PopulationStatus
	if structure != nil {
		status = structure.Status
	}
	eventText := ResolveDecision(traveler, decision, status, rep)

	if structure != nil {
		if err := s.store.SaveStructure(ctx, structure); err != nil {
			return nil, fmt.Errorf("failed to save structure: %w", err)
		}
	}
	if err := s.store.SaveReputation(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to save reputation: %w", err)
	}

	traveler.Complete = true
	traveler.Decision = string(decision)
	if err := s.store.SaveTraveler(ctx, traveler); err != nil {
		return nil, fmt.Errorf("failed to save traveler: %w", err)
	}

	if eventText != "" {
		s.appendEvent(ctx, player.ChatID, session.ID, eventText)
	}

	structures, err := s.store.ListStructures(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &DecisionResult{
		Population:       AggregatePopulation(structures),
		HiddenReputation: rep,
	}, nil
}

// AdvanceDay moves the session to the next day once all travelers of
// the current day are complete, and returns the pre-generated traveler
// set for the new day.
func (s *GameService) AdvanceDay(ctx context.Context, chatID string) (*models.Session, []models.Traveler, []models.Event, error) {
	player, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, nil, nil, err
	}

	completed, err := s.store.CountCompletedTravelers(ctx, session.ID, session.Day)
	if err != nil {
		return nil, nil, nil, err
	}
	if int(completed) != s.cfg.TravelersPerDay {
		return nil, nil, nil, &NotEligibleError{Completed: int(completed), Required: s.cfg.TravelersPerDay}
	}

	session.Day++
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to advance day: %w", err)
	}

	s.appendEvent(ctx, player.ChatID, session.ID, fmt.Sprintf("Day %d begins. New travelers gather at the gate.", session.Day))

	travelers, err := s.store.ListTravelers(ctx, session.ID, session.Day)
	if err != nil {
		return nil, nil, nil, err
	}
	events, err := s.recentEvents(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	return session, travelers, events, nil
}

// UpdateInventory applies a signed delta to one item, flooring at
// zero, and returns the full inventory.
func (s *GameService) UpdateInventory(ctx context.Context, chatID, item string, amount int) (map[string]int, error) {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	row, err := s.store.GetInventoryItem(ctx, session.ID, item)
	if err != nil {
		return nil, err
	}
	row.Count += amount
	if row.Count < 0 {
		row.Count = 0
	}
	if err := s.store.SaveInventoryItem(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save inventory: %w", err)
	}

	return s.inventoryMap(ctx, session.ID)
}

// GiveItems grants multiple items at once, creating rows for items the
// session has never held.
func (s *GameService) GiveItems(ctx context.Context, chatID string, items map[string]int) (map[string]int, error) {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	for name, amount := range items {
		row, err := s.store.GetInventoryItem(ctx, session.ID, name)
		if errors.Is(err, interfaces.ErrNotFound) {
			row = &models.InventoryItem{SessionID: session.ID, Name: name}
		} else if err != nil {
			return nil, err
		}
		row.Count += amount
		if row.Count < 0 {
			row.Count = 0
		}
		if err := s.store.SaveInventoryItem(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to save inventory: %w", err)
		}
	}

	return s.inventoryMap(ctx, session.ID)
}

// SetStructureActive unlocks a structure by template id.
func (s *GameService) SetStructureActive(ctx context.Context, chatID, templateID string) error {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return err
	}

	structure, err := s.store.GetStructureByTemplate(ctx, session.ID, templateID)
	if err != nil {
		return err
	}
	structure.Active = true
	return s.store.SaveStructure(ctx, structure)
}

// UseInteraction spends the consumable behind a row-1 interaction and
// returns the updated inventory together with the usable set.
// Interactions without a consumable cost nothing. Using an interaction
// whose backing item is gone is rejected.
func (s *GameService) UseInteraction(ctx context.Context, chatID, interaction string) (map[string]int, []string, error) {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	available := s.availableInteractions(ctx, session)
	unlocked := false
	for _, id := range available {
		if id == interaction {
			unlocked = true
			break
		}
	}
	if !unlocked {
		return nil, nil, interfaces.ErrNotFound
	}

	if item, consumable := ConsumableItem(interaction); consumable {
		row, err := s.store.GetInventoryItem(ctx, session.ID, item)
		if err != nil {
			return nil, nil, err
		}
		if row.Count <= 0 {
			return nil, nil, interfaces.ErrItemDepleted
		}
		row.Count--
		if err := s.store.SaveInventoryItem(ctx, row); err != nil {
			return nil, nil, fmt.Errorf("failed to save inventory: %w", err)
		}
	}

	inventory, err := s.inventoryMap(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return inventory, UsableInteractions(available, inventory), nil
}

// UnlockInteraction adds an interaction to the session's available set
// and returns the updated list.
func (s *GameService) UnlockInteraction(ctx context.Context, chatID, interaction string) ([]string, error) {
	_, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	interactions, changed := AddInteraction(session.Interactions, interaction)
	if changed {
		session.Interactions = interactions
		if err := s.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to save interactions: %w", err)
		}
		if s.cache != nil {
			if err := s.cache.SetInteractions(ctx, session.ID, interactions); err != nil {
				log.Printf("[GameService] Warning: failed to cache interactions: %v", err)
			}
		}
	}
	return interactions, nil
}

func (s *GameService) playerSession(ctx context.Context, chatID string) (*models.Player, *models.Session, error) {
	player, err := s.store.GetPlayerByChatID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.store.GetActiveSession(ctx, player.ID)
	if err != nil {
		return nil, nil, err
	}
	return player, session, nil
}

func (s *GameService) buildSnapshot(ctx context.Context, player *models.Player, session *models.Session) (*Snapshot, error) {
	structures, err := s.store.ListStructures(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	rep, err := s.store.GetReputation(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	inventory, err := s.inventoryMap(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	events, err := s.recentEvents(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	travelers, err := s.store.ListTravelers(ctx, session.ID, session.Day)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Player:                player,
		Session:               session,
		Population:            AggregatePopulation(structures),
		HiddenReputation:      rep,
		Inventory:             inventory,
		AvailableInteractions: s.availableInteractions(ctx, session),
		Events:                events,
		Travelers:             travelers,
		Pet:                   session.Pet,
	}, nil
}

func (s *GameService) inventoryMap(ctx context.Context, sessionID uint) (map[string]int, error) {
	items, err := s.store.ListInventory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	inventory := make(map[string]int, len(items))
	for _, item := range items {
		inventory[item.Name] = item.Count
	}
	return inventory, nil
}

// availableInteractions reads the session's interaction set, cache
// first, falling back to the persisted session row.
func (s *GameService) availableInteractions(ctx context.Context, session *models.Session) []string {
	if s.cache != nil {
		cached, err := s.cache.GetInteractions(ctx, session.ID)
		if err == nil && len(cached) > 0 {
			return cached
		}
		if err != nil {
			log.Printf("[GameService] Warning: interactions cache read failed: %v", err)
		}
	}
	return session.Interactions
}

func (s *GameService) recentEvents(ctx context.Context, sessionID uint) ([]models.Event, error) {
	limit := s.cfg.EventLogLimit

	if s.cache != nil {
		cached, err := s.cache.RecentEvents(ctx, sessionID, int64(limit))
		if err == nil && len(cached) > 0 {
			events := make([]models.Event, 0, len(cached))
			for _, text := range cached {
				events = append(events, models.Event{SessionID: sessionID, Event: text})
			}
			return events, nil
		}
		if err != nil {
			log.Printf("[GameService] Warning: event cache read failed: %v", err)
		}
	}

	return s.store.ListRecentEvents(ctx, sessionID, limit)
}

// appendEvent persists a log entry, refreshes the cache and notifies
// live clients. Cache and sink failures never fail the operation.
func (s *GameService) appendEvent(ctx context.Context, chatID string, sessionID uint, text string) {
	event := &models.Event{SessionID: sessionID, Event: text}
	if err := s.store.AppendEvent(ctx, event); err != nil {
		log.Printf("[GameService] Failed to append event: %v", err)
		return
	}
	if s.cache != nil {
		if err := s.cache.PushEvent(ctx, sessionID, text); err != nil {
			log.Printf("[GameService] Warning: failed to cache event: %v", err)
		}
	}
	if s.sink != nil {
		s.sink.PublishEvent(chatID, *event)
	}
}

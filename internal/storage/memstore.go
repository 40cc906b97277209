package storage

import (
	"context"
	"sort"
	"sync"

	"gatewarden/internal/interfaces"
	"gatewarden/internal/models"
)

// MemStore is an in-memory GameStore. It backs local runs when no
// database is reachable, and the test suites.
type MemStore struct {
	mu sync.RWMutex

	players    map[uint]*models.Player
	sessions   map[uint]*models.Session
	structures map[uint]*models.Structure
	reputation map[uint]*models.Reputation // keyed by session ID
	inventory  map[uint]*models.InventoryItem
	travelers  map[uint]*models.Traveler
	events     []*models.Event

	nextID uint
}

func NewMemStore() *MemStore {
	return &MemStore{
		players:    make(map[uint]*models.Player),
		sessions:   make(map[uint]*models.Session),
		structures: make(map[uint]*models.Structure),
		reputation: make(map[uint]*models.Reputation),
		inventory:  make(map[uint]*models.InventoryItem),
		travelers:  make(map[uint]*models.Traveler),
	}
}

func (s *MemStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func copyStructure(src *models.Structure) *models.Structure {
	out := *src
	out.Status = make(models.PopulationStatus, len(src.Status))
	for k, v := range src.Status {
		out.Status[k] = v
	}
	return &out
}

func copySession(src *models.Session) *models.Session {
	out := *src
	out.Interactions = append([]string(nil), src.Interactions...)
	return &out
}

func (s *MemStore) GetPlayerByChatID(_ context.Context, chatID string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, player := range s.players {
		if player.ChatID == chatID {
			out := *player
			return &out, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (s *MemStore) CreatePlayer(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player.ID = s.allocID()
	stored := *player
	s.players[player.ID] = &stored
	return nil
}

func (s *MemStore) SavePlayer(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *player
	s.players[player.ID] = &stored
	return nil
}

func (s *MemStore) GetActiveSession(_ context.Context, playerID uint) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.PlayerID == playerID && session.Active {
			return copySession(session), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (s *MemStore) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = s.allocID()
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *MemStore) SaveSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *MemStore) ListStructures(_ context.Context, sessionID uint) ([]models.Structure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Structure
	for _, structure := range s.structures {
		if structure.SessionID == sessionID {
			out = append(out, *copyStructure(structure))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) GetStructureByTemplate(_ context.Context, sessionID uint, templateID string) (*models.Structure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, structure := range s.structures {
		if structure.SessionID == sessionID && structure.TemplateID == templateID {
			return copyStructure(structure), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (s *MemStore) CreateStructures(_ context.Context, structures []models.Structure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range structures {
		structures[i].ID = s.allocID()
		s.structures[structures[i].ID] = copyStructure(&structures[i])
	}
	return nil
}

func (s *MemStore) SaveStructure(_ context.Context, structure *models.Structure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structures[structure.ID] = copyStructure(structure)
	return nil
}

func (s *MemStore) GetReputation(_ context.Context, sessionID uint) (*models.Reputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reputation[sessionID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := *rep
	return &out, nil
}

func (s *MemStore) CreateReputation(_ context.Context, rep *models.Reputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep.ID = s.allocID()
	stored := *rep
	s.reputation[rep.SessionID] = &stored
	return nil
}

func (s *MemStore) SaveReputation(_ context.Context, rep *models.Reputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *rep
	s.reputation[rep.SessionID] = &stored
	return nil
}

func (s *MemStore) ListInventory(_ context.Context, sessionID uint) ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.InventoryItem
	for _, item := range s.inventory {
		if item.SessionID == sessionID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetInventoryItem(_ context.Context, sessionID uint, name string) (*models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.inventory {
		if item.SessionID == sessionID && item.Name == name {
			out := *item
			return &out, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (s *MemStore) SaveInventoryItem(_ context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInventoryItemLocked(item)
	return nil
}

func (s *MemStore) saveInventoryItemLocked(item *models.InventoryItem) {
	if item.ID == 0 {
		for _, existing := range s.inventory {
			if existing.SessionID == item.SessionID && existing.Name == item.Name {
				item.ID = existing.ID
				break
			}
		}
	}
	if item.ID == 0 {
		item.ID = s.allocID()
	}
	stored := *item
	s.inventory[item.ID] = &stored
}

func (s *MemStore) CreateTravelers(_ context.Context, travelers []models.Traveler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range travelers {
		travelers[i].ID = s.allocID()
		stored := travelers[i]
		s.travelers[stored.ID] = &stored
	}
	return nil
}

func (s *MemStore) ListTravelers(_ context.Context, sessionID uint, day int) ([]models.Traveler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Traveler
	for _, traveler := range s.travelers {
		if traveler.SessionID == sessionID && traveler.Day == day {
			out = append(out, *traveler)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *MemStore) GetTraveler(_ context.Context, id uint) (*models.Traveler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	traveler, ok := s.travelers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := *traveler
	return &out, nil
}

func (s *MemStore) SaveTraveler(_ context.Context, traveler *models.Traveler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *traveler
	s.travelers[traveler.ID] = &stored
	return nil
}

func (s *MemStore) CountCompletedTravelers(_ context.Context, sessionID uint, day int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, traveler := range s.travelers {
		if traveler.SessionID == sessionID && traveler.Day == day && traveler.Complete {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) AppendEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendEventLocked(event)
	return nil
}

func (s *MemStore) appendEventLocked(event *models.Event) {
	event.ID = s.allocID()
	stored := *event
	s.events = append(s.events, &stored)
}

func (s *MemStore) ListRecentEvents(_ context.Context, sessionID uint, limit int) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Event
	for _, event := range s.events {
		if event.SessionID == sessionID {
			all = append(all, *event)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// ApplyTriggerBundle mirrors the Postgres transaction: under the single
// store lock, either every side effect lands or none do.
func (s *MemStore) ApplyTriggerBundle(_ context.Context, sessionID uint, bundle interfaces.TriggerBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var structure *models.Structure
	if bundle.ActivateStructureID != "" {
		for _, candidate := range s.structures {
			if candidate.SessionID == sessionID && candidate.TemplateID == bundle.ActivateStructureID {
				structure = candidate
				break
			}
		}
		if structure == nil {
			return interfaces.ErrNotFound
		}
	}

	session, ok := s.sessions[sessionID]
	if bundle.UnlockInteraction != "" && !ok {
		return interfaces.ErrNotFound
	}

	for name, amount := range bundle.GrantItems {
		item := &models.InventoryItem{SessionID: sessionID, Name: name}
		for _, existing := range s.inventory {
			if existing.SessionID == sessionID && existing.Name == name {
				item = existing
				break
			}
		}
		item.Count += amount
		if item.Count < 0 {
			item.Count = 0
		}
		s.saveInventoryItemLocked(item)
	}

	if structure != nil {
		structure.Active = true
	}

	if bundle.UnlockInteraction != "" {
		present := false
		for _, id := range session.Interactions {
			if id == bundle.UnlockInteraction {
				present = true
				break
			}
		}
		if !present {
			session.Interactions = append(session.Interactions, bundle.UnlockInteraction)
		}
	}

	if bundle.Event != "" {
		s.appendEventLocked(&models.Event{SessionID: sessionID, Event: bundle.Event})
	}

	return nil
}

package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"gatewarden/internal/engine"
	"gatewarden/internal/game"
	"gatewarden/internal/interfaces"
	"gatewarden/internal/models"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Telegram WebView origins vary
	},
}

type Handlers struct {
	service *game.GameService
	flavor  *engine.FlavorEngine
	hub     *EventHub
}

func NewHandlers(service *game.GameService, flavor *engine.FlavorEngine, hub *EventHub) *Handlers {
	return &Handlers{
		service: service,
		flavor:  flavor,
		hub:     hub,
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	body := map[string]interface{}{
		"status":  "ok",
		"service": "gatewarden",
	}
	if h.hub != nil {
		body["clientCount"] = h.hub.GetClientCount()
		body["sentCount"] = h.hub.SentCount()
	}
	json.NewEncoder(w).Encode(body)
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewRouter(service *game.GameService, flavor *engine.FlavorEngine, hub *EventHub) *chi.Mux {
	r := chi.NewRouter()

	// Request logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("REQUEST: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	})

	r.Use(corsMiddleware)

	handlers := NewHandlers(service, flavor, hub)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/check", handlers.AuthCheck)
		r.Post("/pet/select", handlers.SelectPet)
		r.Post("/pets/description", handlers.PetDescription)

		r.Route("/travelers", func(r chi.Router) {
			r.Post("/get-day", handlers.GetDayTravelers)
			r.Post("/decision", handlers.SubmitDecision)
		})

		r.Post("/day/advance", handlers.AdvanceDay)

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/update", handlers.UpdateInventory)
			r.Post("/give", handlers.GiveItems)
		})

		r.Post("/structures/set-active", handlers.SetStructureActive)

		r.Route("/interactions", func(r chi.Router) {
			r.Post("/add", handlers.AddInteraction)
			r.Post("/use", handlers.UseInteraction)
		})

		r.Post("/triggers/fire", handlers.FireTrigger)

		r.Get("/events/stream", handlers.GetEventStream)
	})

	return r
}

// writeError emits the uniform {error} body.
func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleServiceError maps domain errors onto status codes. Unexpected
// failures are logged and surfaced as an opaque 500.
func handleServiceError(w http.ResponseWriter, err error) {
	var notEligible *game.NotEligibleError
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, interfaces.ErrAlreadyComplete):
		writeError(w, http.StatusConflict, "Traveler already processed")
	case errors.Is(err, interfaces.ErrItemDepleted):
		writeError(w, http.StatusConflict, "Required item is depleted")
	case errors.As(err, &notEligible):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":          "Not all travelers have been processed",
			"completedCount": notEligible.Completed,
			"requiredCount":  notEligible.Required,
		})
	default:
		log.Printf("ERROR: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type AuthCheckRequest struct {
	ChatID         string `json:"chatId"`
	PlayerName     string `json:"playerName"`
	PlayerLanguage string `json:"playerLanguage"`
	Timezone       string `json:"timezone"`
}

func (h *Handlers) AuthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req AuthCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	snapshot, needsPet, err := h.service.AuthCheck(r.Context(), req.ChatID, req.PlayerName, req.PlayerLanguage, req.Timezone)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if needsPet {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]bool{"needsPetSelection": true})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(snapshot)
}

type SelectPetRequest struct {
	ChatID string `json:"chatId"`
	Pet    string `json:"pet"`
}

func (h *Handlers) SelectPet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req SelectPetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Pet == "" {
		writeError(w, http.StatusBadRequest, "chatId and pet are required")
		return
	}

	snapshot, err := h.service.SelectPet(r.Context(), req.ChatID, req.Pet)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(snapshot)
}

type PetDescriptionRequest struct {
	Pet string `json:"pet"`
}

func (h *Handlers) PetDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req PetDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Pet == "" {
		writeError(w, http.StatusBadRequest, "pet is required")
		return
	}

	description := h.flavor.PetDescription(r.Context(), req.Pet)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"description": description})
}

type GetDayTravelersRequest struct {
	ChatID string `json:"chatId"`
	Day    int    `json:"day"`
}

type GetDayTravelersResponse struct {
	Travelers             []models.Traveler `json:"travelers"`
	AvailableInteractions []string          `json:"available_interactions"`
	UsableInteractions    []string          `json:"usable_interactions"`
}

func (h *Handlers) GetDayTravelers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req GetDayTravelersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Day <= 0 {
		writeError(w, http.StatusBadRequest, "chatId and day are required")
		return
	}

	travelers, available, usable, err := h.service.DayTravelers(r.Context(), req.ChatID, req.Day)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(GetDayTravelersResponse{
		Travelers:             travelers,
		AvailableInteractions: available,
		UsableInteractions:    usable,
	})
}

type DecisionRequest struct {
	ChatID     string `json:"chatId"`
	TravelerID uint   `json:"travelerId"`
	Decision   string `json:"decision"`
}

type DecisionResponse struct {
	Success          bool                    `json:"success"`
	Population       models.PopulationStatus `json:"population,omitempty"`
	HiddenReputation *models.Reputation      `json:"hidden_reputation,omitempty"`
}

func (h *Handlers) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.TravelerID == 0 || req.Decision == "" {
		writeError(w, http.StatusBadRequest, "chatId, travelerId and decision are required")
		return
	}

	decision, err := game.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown decision type")
		return
	}

	result, err := h.service.SubmitDecision(r.Context(), req.ChatID, req.TravelerID, decision)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(DecisionResponse{
		Success:          true,
		Population:       result.Population,
		HiddenReputation: result.HiddenReputation,
	})
}

type AdvanceDayRequest struct {
	ChatID string `json:"chatId"`
}

type AdvanceDayResponse struct {
	Success   bool              `json:"success"`
	Session   *models.Session   `json:"session"`
	Travelers []models.Traveler `json:"travelers"`
	Events    []models.Event    `json:"events"`
}

func (h *Handlers) AdvanceDay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req AdvanceDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	session, travelers, events, err := h.service.AdvanceDay(r.Context(), req.ChatID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AdvanceDayResponse{
		Success:   true,
		Session:   session,
		Travelers: travelers,
		Events:    events,
	})
}

type UpdateInventoryRequest struct {
	ChatID string `json:"chatId"`
	Item   string `json:"item"`
	Amount int    `json:"amount"`
}

func (h *Handlers) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req UpdateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Item == "" {
		writeError(w, http.StatusBadRequest, "chatId and item are required")
		return
	}

	items, err := h.service.UpdateInventory(r.Context(), req.ChatID, req.Item, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"items":   items,
	})
}

type GiveItemsRequest struct {
	ChatID string         `json:"chatId"`
	Items  map[string]int `json:"items"`
}

func (h *Handlers) GiveItems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req GiveItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "chatId and items are required")
		return
	}

	inventory, err := h.service.GiveItems(r.Context(), req.ChatID, req.Items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"inventory": inventory,
	})
}

type SetStructureActiveRequest struct {
	ChatID              string `json:"chatId"`
	StructureTemplateID string `json:"structureTemplateId"`
}

func (h *Handlers) SetStructureActive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req SetStructureActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.StructureTemplateID == "" {
		writeError(w, http.StatusBadRequest, "chatId and structureTemplateId are required")
		return
	}

	if err := h.service.SetStructureActive(r.Context(), req.ChatID, req.StructureTemplateID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

type AddInteractionRequest struct {
	ChatID      string `json:"chatId"`
	Interaction string `json:"interaction"`
}

func (h *Handlers) AddInteraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req AddInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Interaction == "" {
		writeError(w, http.StatusBadRequest, "chatId and interaction are required")
		return
	}
	if !game.KnownInteraction(req.Interaction) {
		writeError(w, http.StatusBadRequest, "Unknown interaction")
		return
	}

	interactions, err := h.service.UnlockInteraction(r.Context(), req.ChatID, req.Interaction)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":                true,
		"available_interactions": interactions,
	})
}

type UseInteractionRequest struct {
	ChatID      string `json:"chatId"`
	Interaction string `json:"interaction"`
}

func (h *Handlers) UseInteraction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req UseInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Interaction == "" {
		writeError(w, http.StatusBadRequest, "chatId and interaction are required")
		return
	}
	if !game.KnownInteraction(req.Interaction) {
		writeError(w, http.StatusBadRequest, "Unknown interaction")
		return
	}

	items, usable, err := h.service.UseInteraction(r.Context(), req.ChatID, req.Interaction)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":             true,
		"items":               items,
		"usable_interactions": usable,
	})
}

type FireTriggerRequest struct {
	ChatID  string `json:"chatId"`
	Trigger string `json:"trigger"`
}

func (h *Handlers) FireTrigger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req FireTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.Trigger == "" {
		writeError(w, http.StatusBadRequest, "chatId and trigger are required")
		return
	}

	if err := h.service.FireTrigger(r.Context(), req.ChatID, req.Trigger); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// GetEventStream upgrades the connection and subscribes the client to
// its player's live event feed.
func (h *Handlers) GetEventStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusServiceUnavailable, "Hub not initialized")
		return
	}

	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		ID:     generateClientID(),
		ChatID: chatID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}

	h.hub.register <- client

	welcome, _ := json.Marshal(map[string]interface{}{
		"type": "connected",
		"id":   client.ID,
		"time": time.Now().Unix(),
	})
	select {
	case client.Send <- welcome:
	default:
	}

	go client.readPump()
}

// generateClientID generates a unique client ID
func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}

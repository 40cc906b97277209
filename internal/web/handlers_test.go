package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatewarden/internal/config"
	"gatewarden/internal/engine"
	"gatewarden/internal/game"
	"gatewarden/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := storage.NewMemStore()
	service := game.NewGameService(store, nil, nil, config.GameConfig{
		Days:            10,
		TravelersPerDay: 6,
		EventLogLimit:   10,
		StartingInventory: map[string]int{
			"holy water":      1,
			"lantern fuel":    3,
			"medicinal herbs": 1,
		},
	})
	flavor := engine.NewFlavorEngine(config.FlavorConfig{})
	return NewRouter(service, flavor, nil)
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// registerAndStart walks a fresh chat through auth and pet selection.
func registerAndStart(t *testing.T, router http.Handler, chatID string) {
	t.Helper()
	rec := postJSON(t, router, "/api/auth/check", map[string]string{
		"chatId": chatID, "playerName": "Tester", "playerLanguage": "EN", "timezone": "UTC",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("auth check = %d: %s", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, router, "/api/pet/select", map[string]string{
		"chatId": chatID, "pet": "cat",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pet select = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestAuthCheckRequiresChatID(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/check", map[string]string{"playerName": "Tester"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] == "" {
		t.Fatalf("missing error message in %v", body)
	}
}

func TestAuthCheckNewPlayerNeedsPet(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/check", map[string]string{
		"chatId": "chat-1", "playerName": "Tester", "playerLanguage": "EN", "timezone": "UTC",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]bool
	decodeBody(t, rec, &body)
	if !body["needsPetSelection"] {
		t.Fatalf("body = %v, want needsPetSelection", body)
	}
}

func TestSelectPetReturnsSnapshot(t *testing.T) {
	router := newTestRouter(t)
	postJSON(t, router, "/api/auth/check", map[string]string{"chatId": "chat-1"})

	rec := postJSON(t, router, "/api/pet/select", map[string]string{
		"chatId": "chat-1", "pet": "owl",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var snapshot struct {
		Session struct {
			Day int    `json:"day"`
			Pet string `json:"pet"`
		} `json:"session"`
		Population map[string]int `json:"population"`
		Travelers  []struct {
			Traveler struct {
				Name string `json:"name"`
			} `json:"traveler"`
		} `json:"travelers"`
		AvailableInteractions []string `json:"available_interactions"`
	}
	decodeBody(t, rec, &snapshot)

	if snapshot.Session.Day != 1 || snapshot.Session.Pet != "owl" {
		t.Fatalf("session = %+v", snapshot.Session)
	}
	if len(snapshot.Travelers) != 6 {
		t.Fatalf("travelers = %d, want 6", len(snapshot.Travelers))
	}
	if snapshot.Population["human"] != 24 {
		t.Fatalf("human population = %d, want 24", snapshot.Population["human"])
	}
	if len(snapshot.AvailableInteractions) != 3 {
		t.Fatalf("interactions = %v", snapshot.AvailableInteractions)
	}
}

func TestGetDayTravelers(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/travelers/get-day", map[string]interface{}{
		"chatId": "chat-1", "day": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body GetDayTravelersResponse
	decodeBody(t, rec, &body)
	if len(body.Travelers) != 6 {
		t.Fatalf("travelers = %d, want 6", len(body.Travelers))
	}
	if len(body.AvailableInteractions) == 0 || len(body.UsableInteractions) == 0 {
		t.Fatalf("interaction sets missing: %+v", body)
	}
}

func TestSubmitDecisionFlow(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/travelers/get-day", map[string]interface{}{
		"chatId": "chat-1", "day": 1,
	})
	var day GetDayTravelersResponse
	decodeBody(t, rec, &day)
	travelerID := day.Travelers[1].ID // position 2, never a fixed encounter

	rec = postJSON(t, router, "/api/travelers/decision", map[string]interface{}{
		"chatId": "chat-1", "travelerId": travelerID, "decision": "deny",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("decision = %d: %s", rec.Code, rec.Body.String())
	}
	var body DecisionResponse
	decodeBody(t, rec, &body)
	if !body.Success || body.HiddenReputation == nil {
		t.Fatalf("body = %+v", body)
	}

	// Same traveler again: the decision is final.
	rec = postJSON(t, router, "/api/travelers/decision", map[string]interface{}{
		"chatId": "chat-1", "travelerId": travelerID, "decision": "allow",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("resubmission = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitDecisionUnknownType(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/travelers/decision", map[string]interface{}{
		"chatId": "chat-1", "travelerId": 1, "decision": "banish",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestAdvanceDayNotEligible(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/day/advance", map[string]string{"chatId": "chat-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Error          string `json:"error"`
		CompletedCount int    `json:"completedCount"`
		RequiredCount  int    `json:"requiredCount"`
	}
	decodeBody(t, rec, &body)
	if body.CompletedCount != 0 || body.RequiredCount != 6 {
		t.Fatalf("progress = %d/%d, want 0/6", body.CompletedCount, body.RequiredCount)
	}
	if body.Error == "" {
		t.Fatalf("missing error message")
	}
}

func TestAdvanceDayAfterFullDay(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/travelers/get-day", map[string]interface{}{
		"chatId": "chat-1", "day": 1,
	})
	var day GetDayTravelersResponse
	decodeBody(t, rec, &day)

	for _, traveler := range day.Travelers {
		decision := "deny"
		if traveler.Data.IsFixed {
			decision = "complete_fixed"
		}
		rec := postJSON(t, router, "/api/travelers/decision", map[string]interface{}{
			"chatId": "chat-1", "travelerId": traveler.ID, "decision": decision,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("decision for %d = %d: %s", traveler.ID, rec.Code, rec.Body.String())
		}
	}

	rec = postJSON(t, router, "/api/day/advance", map[string]string{"chatId": "chat-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance = %d: %s", rec.Code, rec.Body.String())
	}
	var body AdvanceDayResponse
	decodeBody(t, rec, &body)
	if !body.Success || body.Session.Day != 2 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Travelers) != 6 {
		t.Fatalf("day 2 travelers = %d, want 6", len(body.Travelers))
	}
}

func TestPetDescriptionFallback(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/pets/description", map[string]string{"pet": "fox"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["description"] != "Coming soon…" {
		t.Fatalf("description = %q", body["description"])
	}
}

func TestUpdateInventory(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/inventory/update", map[string]interface{}{
		"chatId": "chat-1", "item": "holy water", "amount": -5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool           `json:"success"`
		Items   map[string]int `json:"items"`
	}
	decodeBody(t, rec, &body)
	if body.Items["holy water"] != 0 {
		t.Fatalf("holy water = %d, want 0 (floored)", body.Items["holy water"])
	}
}

func TestAddInteraction(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/interactions/add", map[string]string{
		"chatId": "chat-1", "interaction": "summon-dragon",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown interaction = %d, want 400", rec.Code)
	}

	rec = postJSON(t, router, "/api/interactions/add", map[string]string{
		"chatId": "chat-1", "interaction": "holy-water",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success               bool     `json:"success"`
		AvailableInteractions []string `json:"available_interactions"`
	}
	decodeBody(t, rec, &body)
	if len(body.AvailableInteractions) != 4 {
		t.Fatalf("interactions = %v, want default set plus holy-water", body.AvailableInteractions)
	}
}

func TestFireTrigger(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/triggers/fire", map[string]string{
		"chatId": "chat-1", "trigger": "Explanation_H",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// The trigger unlocks nothing new here (check-papers is a default),
	// but the watchtower must now be active and fuel granted.
	rec = postJSON(t, router, "/api/inventory/update", map[string]interface{}{
		"chatId": "chat-1", "item": "lantern fuel", "amount": 0,
	})
	var body struct {
		Items map[string]int `json:"items"`
	}
	decodeBody(t, rec, &body)
	if body.Items["lantern fuel"] != 5 { // 3 starting + 2 granted
		t.Fatalf("lantern fuel = %d, want 5", body.Items["lantern fuel"])
	}
}

func TestEventStreamRequiresChatID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status without hub = %d, want 503", rec.Code)
	}
}

func TestHealthCheckReportsHubCounters(t *testing.T) {
	store := storage.NewMemStore()
	service := game.NewGameService(store, nil, nil, config.GameConfig{
		Days:            10,
		TravelersPerDay: 6,
		EventLogLimit:   10,
	})
	flavor := engine.NewFlavorEngine(config.FlavorConfig{})
	router := NewRouter(service, flavor, NewEventHub())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status      string `json:"status"`
		ClientCount *int   `json:"clientCount"`
		SentCount   *int64 `json:"sentCount"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "ok" {
		t.Fatalf("status = %q", body.Status)
	}
	if body.ClientCount == nil || *body.ClientCount != 0 {
		t.Fatalf("clientCount = %v, want 0", body.ClientCount)
	}
	if body.SentCount == nil || *body.SentCount != 0 {
		t.Fatalf("sentCount = %v, want 0", body.SentCount)
	}
}

func TestUseInteraction(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	var body struct {
		Success            bool           `json:"success"`
		Items              map[string]int `json:"items"`
		UsableInteractions []string       `json:"usable_interactions"`
	}

	// Three uses drain the starting lantern fuel.
	for want := 2; want >= 0; want-- {
		rec := postJSON(t, router, "/api/interactions/use", map[string]string{
			"chatId": "chat-1", "interaction": "check-papers",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("use = %d: %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &body)
		if body.Items["lantern fuel"] != want {
			t.Fatalf("lantern fuel = %d, want %d", body.Items["lantern fuel"], want)
		}
	}

	for _, id := range body.UsableInteractions {
		if id == "check-papers" {
			t.Fatalf("check-papers still usable at fuel 0: %v", body.UsableInteractions)
		}
	}

	rec := postJSON(t, router, "/api/interactions/use", map[string]string{
		"chatId": "chat-1", "interaction": "check-papers",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("use at zero fuel = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestUseInteractionValidation(t *testing.T) {
	router := newTestRouter(t)
	registerAndStart(t, router, "chat-1")

	rec := postJSON(t, router, "/api/interactions/use", map[string]string{
		"chatId": "chat-1", "interaction": "summon-dragon",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown interaction = %d, want 400", rec.Code)
	}

	// Known but not yet unlocked for this session.
	rec = postJSON(t, router, "/api/interactions/use", map[string]string{
		"chatId": "chat-1", "interaction": "holy-water",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("locked interaction = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

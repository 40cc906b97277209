package game

import (
	"context"
	"log"

	"gatewarden/internal/interfaces"
	"gatewarden/internal/models"
)

// Trigger names scripted story beats carried by fixed travelers.
type Trigger string

const (
	TriggerRevelation   Trigger = "Revelation"
	TriggerExplanationH Trigger = "Explanation_H"
	TriggerInquisition  Trigger = "Inquisition"
	TriggerExplanationM Trigger = "Explanation_M"
	TriggerUndead       Trigger = "undead"
	TriggerCult         Trigger = "cult"
)

// FireTrigger dispatches a fixed-traveler trigger. Unknown trigger
// names are logged and ignored so unscripted encounters never break a
// run. Scripted side effects apply as one store transaction.
func (s *GameService) FireTrigger(ctx context.Context, chatID string, trigger string) error {
	player, session, err := s.playerSession(ctx, chatID)
	if err != nil {
		return err
	}

	switch Trigger(trigger) {
	case TriggerExplanationH:
		// Mithrail teaches papers inspection: fuel for the lantern and
		// the watchtower to read them from.
		return s.applyTriggerBundle(ctx, player.ChatID, session, interfaces.TriggerBundle{
			GrantItems:          map[string]int{ItemLanternFuel: 2},
			ActivateStructureID: "watchtower",
			UnlockInteraction:   InteractionCheckPapers,
			Event:               "Mithrail taught you to inspect travel papers by lantern light.",
		})

	case TriggerExplanationM:
		// Nora's herb lesson.
		return s.applyTriggerBundle(ctx, player.ChatID, session, interfaces.TriggerBundle{
			GrantItems:          map[string]int{ItemMedicinalHerbs: 2},
			ActivateStructureID: "herbalist_hut",
			UnlockInteraction:   InteractionMedicinalHerbs,
			Event:               "Nora showed you how burning herbs betrays the infected.",
		})

	case TriggerRevelation, TriggerInquisition, TriggerUndead, TriggerCult:
		// Recognized story beats that are not scripted yet.
		log.Printf("[Trigger] %s fired for session %d, no script attached", trigger, session.ID)
		return nil

	default:
		log.Printf("[Trigger] Unknown trigger %q for session %d, ignoring", trigger, session.ID)
		return nil
	}
}

// applyTriggerBundle runs the bundle through the store transaction and
// mirrors the resulting state into the cache and the live feed.
func (s *GameService) applyTriggerBundle(ctx context.Context, chatID string, session *models.Session, bundle interfaces.TriggerBundle) error {
	if err := s.store.ApplyTriggerBundle(ctx, session.ID, bundle); err != nil {
		return err
	}

	if bundle.UnlockInteraction != "" && s.cache != nil {
		interactions, _ := AddInteraction(session.Interactions, bundle.UnlockInteraction)
		if err := s.cache.SetInteractions(ctx, session.ID, interactions); err != nil {
			log.Printf("[GameService] Warning: failed to cache interactions: %v", err)
		}
	}

	if bundle.Event != "" {
		if s.cache != nil {
			if err := s.cache.PushEvent(ctx, session.ID, bundle.Event); err != nil {
				log.Printf("[GameService] Warning: failed to cache trigger event: %v", err)
			}
		}
		if s.sink != nil {
			s.sink.PublishEvent(chatID, models.Event{SessionID: session.ID, Event: bundle.Event})
		}
	}
	return nil
}

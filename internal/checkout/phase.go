package checkout

import (
	"sync"

	"github.com/google/uuid"
)

// Phase is the position of a user's checkout in its lifecycle.
type Phase string

const (
	PhaseIdle                        Phase = "idle"
	PhaseCollecting                  Phase = "collecting"
	PhaseSubmitting                  Phase = "submitting"
	PhaseAwaitingPaymentConfirmation Phase = "awaiting_payment_confirmation"
	PhaseCompleted                   Phase = "completed"
)

// phaseTracker records each user's checkout phase. Phases are advisory
// state for the storefront; orders and carts remain the source of truth,
// so losing this map on restart is harmless.
type phaseTracker struct {
	mu     sync.RWMutex
	phases map[uuid.UUID]Phase
}

func newPhaseTracker() *phaseTracker {
	return &phaseTracker{phases: make(map[uuid.UUID]Phase)}
}

func (t *phaseTracker) get(userID uuid.UUID) Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if phase, ok := t.phases[userID]; ok {
		return phase
	}
	return PhaseIdle
}

func (t *phaseTracker) set(userID uuid.UUID, phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if phase == PhaseIdle {
		delete(t.phases, userID)
		return
	}
	t.phases[userID] = phase
}

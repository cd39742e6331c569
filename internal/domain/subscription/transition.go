package subscription

import (
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/samber/lo"
)

// Event is a lifecycle operation applied to an existing subscription
type Event string

const (
	EventActivate          Event = "activate"
	EventPause             Event = "pause"
	EventResume            Event = "resume"
	EventUpgrade           Event = "upgrade"
	EventDowngrade         Event = "downgrade"
	EventScheduleDowngrade Event = "schedule_downgrade"
	EventApplyScheduled    Event = "apply_scheduled_change"
	EventRenew             Event = "renew"
	EventCancel            Event = "cancel"
	EventExpire            Event = "expire"
)

type transition struct {
	from []types.SubscriptionStatus
	to   types.SubscriptionStatus
}

var transitions = map[Event]transition{
	EventActivate: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusPending, types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusActive,
	},
	EventPause: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusSuspended,
	},
	EventResume: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusSuspended},
		to:   types.SubscriptionStatusActive,
	},
	EventUpgrade: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusActive,
	},
	EventDowngrade: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusActive,
	},
	EventScheduleDowngrade: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusActive,
	},
	EventApplyScheduled: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusActive,
	},
	EventRenew: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusExpired},
		to:   types.SubscriptionStatusActive,
	},
	EventCancel: {
		from: []types.SubscriptionStatus{
			types.SubscriptionStatusActive,
			types.SubscriptionStatusSuspended,
			types.SubscriptionStatusPending,
			types.SubscriptionStatusExpired,
		},
		to: types.SubscriptionStatusCancelled,
	},
	EventExpire: {
		from: []types.SubscriptionStatus{types.SubscriptionStatusActive},
		to:   types.SubscriptionStatusExpired,
	},
}

// CanTransition returns the status reached by applying event in status from,
// and false when the event is not allowed there.
func CanTransition(from types.SubscriptionStatus, event Event) (types.SubscriptionStatus, bool) {
	t, ok := transitions[event]
	if !ok || !lo.Contains(t.from, from) {
		return from, false
	}
	return t.to, true
}

// Transition moves the subscription to the status reached by event. Cancelling
// an already cancelled subscription is a conflict, every other disallowed event
// is an invalid transition.
func (s *Subscription) Transition(event Event) error {
	if event == EventCancel && s.IsCancelled() {
		return ierr.NewError("subscription is already cancelled").
			WithHint("Subscription is already cancelled").
			WithReportableDetails(map[string]any{
				"subscription_id": s.ID,
			}).
			Mark(ierr.ErrConflict)
	}

	to, ok := CanTransition(s.Status, event)
	if !ok {
		return ierr.NewErrorf("cannot %s subscription in status %s", event, s.Status).
			WithHintf("Cannot %s a subscription that is %s", event, s.Status).
			WithReportableDetails(map[string]any{
				"subscription_id": s.ID,
				"status":          s.Status,
				"event":           event,
				"allowed_from":    transitions[event].from,
			}).
			Mark(ierr.ErrInvalidTransition)
	}
	s.Status = to
	return nil
}

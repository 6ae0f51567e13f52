package delivery

// transitionRule names one legal (to, actor) pair out of a given status, per
// the §4.1 table. Guards beyond actor (payment authorized, proximity
// distance, proof supplied, reason required) are enforced by Service at the
// call site, not here.
type transitionRule struct {
	To    DeliveryStatus
	Actor Actor
}

var legalTransitions = map[DeliveryStatus][]transitionRule{
	StatusPending: {
		{StatusSearchingCourier, ActorSystem},
		{StatusCancelled, ActorSender},
	},
	StatusSearchingCourier: {
		{StatusCourierAssigned, ActorSystem},
		{StatusCancelled, ActorSender},
	},
	StatusCourierAssigned: {
		{StatusEnRouteToPickup, ActorCourier},
		{StatusCancelled, ActorSender},
	},
	StatusEnRouteToPickup: {
		{StatusApproachingPickup, ActorSystem},
		{StatusAtPickup, ActorCourier},
		{StatusCancelled, ActorSender},
	},
	StatusApproachingPickup: {
		{StatusAtPickup, ActorCourier},
	},
	StatusAtPickup: {
		{StatusPickedUp, ActorCourier},
		{StatusFailed, ActorCourier},
	},
	StatusPickedUp: {
		{StatusInTransit, ActorCourier},
		{StatusFailed, ActorCourier},
		{StatusReturned, ActorCourier},
	},
	StatusInTransit: {
		{StatusApproachingDropoff, ActorSystem},
		{StatusAtDropoff, ActorCourier},
		{StatusFailed, ActorCourier},
		{StatusReturned, ActorCourier},
	},
	StatusApproachingDropoff: {
		{StatusAtDropoff, ActorCourier},
		{StatusFailed, ActorCourier},
		{StatusReturned, ActorCourier},
	},
	StatusAtDropoff: {
		{StatusDelivered, ActorCourier},
		{StatusFailed, ActorCourier},
		{StatusReturned, ActorCourier},
	},
}

// isValidTransition reports whether actor may move a delivery from `from`
// to `to`. Terminal statuses have no outgoing rules and therefore always
// reject. The idempotent case (from == to) is handled by the caller before
// consulting this table.
func isValidTransition(from, to DeliveryStatus, actor Actor) bool {
	rules, ok := legalTransitions[from]
	if !ok {
		return false
	}
	for _, r := range rules {
		if r.To == to && r.Actor == actor {
			return true
		}
	}
	return false
}

// requiresReason reports whether a transition into `to` from `from` must
// carry a non-empty reason (failed/returned transitions, per §4.1).
func requiresReason(to DeliveryStatus) bool {
	return to == StatusFailed || to == StatusReturned
}

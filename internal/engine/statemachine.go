package engine

import "donationFulfillment/models"

// transitions is the legal edge set of the fulfillment state machine.
// completed and cancelled are terminal; re-entry into pending never happens,
// a cancelled donation must be recreated.
var transitions = map[models.DonationStatus][]models.DonationStatus{
	models.DonationStatusPending: {
		models.DonationStatusConfirmed,
		models.DonationStatusCancelled,
	},
	models.DonationStatusConfirmed: {
		models.DonationStatusAssigned,
		models.DonationStatusManual,
		models.DonationStatusCancelled,
	},
	models.DonationStatusAssigned: {
		models.DonationStatusPickedUp,
		models.DonationStatusCancelled,
	},
	models.DonationStatusPickedUp: {
		models.DonationStatusInTransit,
		models.DonationStatusDelivered,
		models.DonationStatusCompleted,
		models.DonationStatusCancelled,
	},
	models.DonationStatusInTransit: {
		models.DonationStatusDelivered,
		models.DonationStatusCompleted,
		models.DonationStatusCancelled,
	},
	models.DonationStatusDelivered: {
		models.DonationStatusCompleted,
	},
	models.DonationStatusManual: {
		models.DonationStatusAssigned,
		models.DonationStatusCompleted,
		models.DonationStatusCancelled,
	},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to models.DonationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// statusOrder fixes a canonical iteration order over the non-terminal states
// so derived guard sets are deterministic.
var statusOrder = []models.DonationStatus{
	models.DonationStatusPending,
	models.DonationStatusConfirmed,
	models.DonationStatusAssigned,
	models.DonationStatusPickedUp,
	models.DonationStatusInTransit,
	models.DonationStatusDelivered,
	models.DonationStatusManual,
}

// edgesInto derives the set of states holding an edge to the target, minus
// the exceptions. Guard sets for the repositories' conditional updates come
// from here so they cannot drift from the transition table.
func edgesInto(to models.DonationStatus, except ...models.DonationStatus) []models.DonationStatus {
	var out []models.DonationStatus
	for _, from := range statusOrder {
		skip := false
		for _, e := range except {
			if from == e {
				skip = true
				break
			}
		}
		if skip || !CanTransition(from, to) {
			continue
		}
		out = append(out, from)
	}
	return out
}

// cancellableStatuses are the states a donor/recipient cancellation may leave
// from: anything before the food is delivered. Leaving manual is the admin
// resolver's exit, not a party cancellation.
var cancellableStatuses = edgesInto(models.DonationStatusCancelled, models.DonationStatusManual)

// receiptStatuses are the states a recipient may confirm receipt from.
// manual -> completed belongs to the admin resolver, not the recipient.
var receiptStatuses = edgesInto(models.DonationStatusCompleted, models.DonationStatusManual)

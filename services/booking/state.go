package booking

import (
	"slices"

	"bookwell/models"
)

// Role is the kind of actor requesting a transition.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleProvider  Role = "provider"
	RoleShopOwner Role = "shopOwner"
	RoleSystem    Role = "system"
)

// Actor identifies the caller of a use-case.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by remediation and payment signals.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Action names a state machine transition.
type Action string

const (
	ActionCancel         Action = "cancel"
	ActionAccept         Action = "accept"
	ActionReject         Action = "reject"
	ActionApprove        Action = "approve"
	ActionReassign       Action = "reassign"
	ActionAutoAssign     Action = "autoAssign"
	ActionAutoReschedule Action = "autoReschedule"
	ActionConfirmPayment Action = "confirmPayment"
	ActionComplete       Action = "complete"
	ActionNoShow         Action = "noShow"
)

type rule struct {
	actors []Role
	from   []models.BookingStatus
	to     []models.BookingStatus
}

var providerResponseSources = []models.BookingStatus{
	models.StatusPending,
	models.StatusAssigned,
	models.StatusRescheduled,
	models.StatusReassigned,
	models.StatusRejectedBarber,
	models.StatusFreelancerRejected,
}

// autoRescheduleSources excludes terminal statuses, confirmed, every
// rejection other than shop_owner_rejected, and rescheduled itself.
var autoRescheduleSources = []models.BookingStatus{
	models.StatusPending,
	models.StatusAssigned,
	models.StatusReassigned,
	models.StatusShopOwnerRejected,
}

var transitions = map[Action]rule{
	ActionCancel: {
		actors: []Role{RoleCustomer},
		from:   []models.BookingStatus{models.StatusPending},
		to:     []models.BookingStatus{models.StatusCancelled},
	},
	ActionAccept: {
		actors: []Role{RoleProvider, RoleShopOwner},
		from:   providerResponseSources,
		to:     []models.BookingStatus{models.StatusConfirmed},
	},
	ActionReject: {
		actors: []Role{RoleProvider, RoleShopOwner},
		from:   providerResponseSources,
		to: []models.BookingStatus{
			models.StatusRejectedBarber,
			models.StatusFreelancerRejected,
			models.StatusShopOwnerRejected,
		},
	},
	ActionApprove: {
		actors: []Role{RoleShopOwner},
		from:   []models.BookingStatus{models.StatusPending, models.StatusRescheduled},
		to:     []models.BookingStatus{models.StatusConfirmed, models.StatusAssigned, models.StatusPending},
	},
	ActionReassign: {
		actors: []Role{RoleShopOwner},
		from: []models.BookingStatus{
			models.StatusRejected,
			models.StatusRejectedBarber,
			models.StatusPending,
			models.StatusAssigned,
			models.StatusRescheduled,
		},
		to: []models.BookingStatus{models.StatusConfirmed, models.StatusReassigned},
	},
	ActionAutoAssign: {
		actors: []Role{RoleSystem},
		from:   []models.BookingStatus{models.StatusPending},
		to:     []models.BookingStatus{models.StatusAssigned},
	},
	ActionAutoReschedule: {
		actors: []Role{RoleSystem},
		from:   autoRescheduleSources,
		to:     []models.BookingStatus{models.StatusRescheduled},
	},
	ActionConfirmPayment: {
		actors: []Role{RoleSystem},
		from:   []models.BookingStatus{models.StatusPending},
		to:     []models.BookingStatus{models.StatusConfirmed},
	},
	ActionComplete: {
		actors: []Role{RoleSystem, RoleProvider, RoleShopOwner},
		from:   []models.BookingStatus{models.StatusConfirmed},
		to:     []models.BookingStatus{models.StatusCompleted},
	},
	ActionNoShow: {
		actors: []Role{RoleSystem, RoleProvider, RoleShopOwner},
		from:   []models.BookingStatus{models.StatusConfirmed},
		to:     []models.BookingStatus{models.StatusNoShow},
	},
}

// CanTransition checks a transition against the rule table.
func CanTransition(action Action, actor Role, from, to models.BookingStatus) error {
	r, ok := transitions[action]
	if !ok {
		return conflict(CodeInvalidTransition, "unknown action %q", action)
	}
	if !slices.Contains(r.actors, actor) {
		return conflict(CodeInvalidTransition, "%s may not %s a booking", actor, action)
	}
	if !slices.Contains(r.from, from) {
		return conflict(CodeInvalidTransition, "cannot %s a booking in status %s", action, from)
	}
	if !slices.Contains(r.to, to) {
		return conflict(CodeInvalidTransition, "%s cannot move a booking to %s", action, to)
	}
	return nil
}

// Transition applies a checked transition to b. On error b is untouched.
func Transition(b *models.Booking, action Action, actor Role, to models.BookingStatus) error {
	if err := CanTransition(action, actor, b.Status, to); err != nil {
		return err
	}
	b.Status = to
	return nil
}

// RejectionStatus is the status a rejection by a provider of kind k yields.
func RejectionStatus(k models.ProviderKind) models.BookingStatus {
	switch k {
	case models.KindStaff:
		return models.StatusRejectedBarber
	case models.KindFreelancer:
		return models.StatusFreelancerRejected
	default:
		return models.StatusShopOwnerRejected
	}
}

// AutoRescheduleEligible reports whether status s may be time-shifted by remediation.
func AutoRescheduleEligible(s models.BookingStatus) bool {
	return slices.Contains(autoRescheduleSources, s)
}

// AllStatuses lists every booking status.
var AllStatuses = []models.BookingStatus{
	models.StatusPending,
	models.StatusAssigned,
	models.StatusReassigned,
	models.StatusRescheduled,
	models.StatusConfirmed,
	models.StatusCompleted,
	models.StatusCancelled,
	models.StatusNoShow,
	models.StatusRejected,
	models.StatusFreelancerRejected,
	models.StatusRejectedBarber,
	models.StatusShopOwnerRejected,
}

// Package workflow drives the out-of-stock fulfillment state machine.
// Master and line records share one status lattice; lines advance
// independently per supplier while the master aggregates their outcomes.
package workflow

import (
	"github.com/xelth-com/fieldopsgo/internal/apperr"
	"github.com/xelth-com/fieldopsgo/internal/models"
)

// Action names one workflow transition.
type Action string

const (
	ActionAssignSupplier   Action = "assign_supplier"
	ActionSendToSupplier   Action = "send_to_supplier"
	ActionSupplierRespond  Action = "supplier_respond"
	ActionAdminAccept      Action = "admin_accept"
	ActionAdminReject      Action = "admin_reject"
	ActionMarkNotAvailable Action = "mark_not_available"
	ActionCancel           Action = "cancel"
)

// rule is one row of the transition table: who may perform the action and
// from which statuses.
type rule struct {
	role models.Role
	from []int
}

var transitionTable = map[Action]rule{
	ActionAssignSupplier:   {models.RoleAdmin, []int{models.StatusUnresolved, models.StatusPartiallyOrNotAvailable}},
	ActionSendToSupplier:   {models.RoleAdmin, []int{models.StatusUnresolved}},
	ActionSupplierRespond:  {models.RoleSupplier, []int{models.StatusAwaitingSupplierResponse}},
	ActionAdminAccept:      {models.RoleAdmin, []int{models.StatusPartiallyOrNotAvailable}},
	ActionAdminReject:      {models.RoleAdmin, []int{models.StatusPartiallyOrNotAvailable}},
	ActionMarkNotAvailable: {models.RoleAdmin, []int{models.StatusUnresolved, models.StatusPartiallyOrNotAvailable}},
	ActionCancel:           {models.RoleAdmin, []int{models.StatusUnresolved, models.StatusAwaitingSupplierResponse, models.StatusPartiallyOrNotAvailable}},
}

// Check validates one (status, action, role) triple against the transition
// table. It is pure; callers re-read the stored status inside the same
// transaction that writes the transition.
func Check(status int, action Action, role models.Role) error {
	r, ok := transitionTable[action]
	if !ok {
		return apperr.Newf(apperr.KindValidation, "unknown workflow action %q", action)
	}
	if role != r.role {
		return apperr.Newf(apperr.KindValidation, "role %q may not perform %q", role, action)
	}
	for _, s := range r.from {
		if status == s {
			return nil
		}
	}
	return apperr.InvalidTransition(string(action), status)
}

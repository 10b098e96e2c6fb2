package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the resource kind a request targets.
type Kind string

const (
	KindDepartment    Kind = "Department"
	KindDoctor        Kind = "Doctor"
	KindPatient       Kind = "Patient"
	KindAppointment   Kind = "Appointment"
	KindMedicalRecord Kind = "MedicalRecord"
	KindPrescription  Kind = "Prescription"
	KindBilling       Kind = "Billing"
)

// Action is the operation the actor wants to perform.
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Custom builds a named custom action (e.g. "custom:record_payment").
// Custom actions are always treated as writes.
func Custom(name string) Action {
	return Action("custom:" + name)
}

// ReadOnly reports whether the action cannot mutate state.
func (a Action) ReadOnly() bool {
	return a == ActionList || a == ActionRetrieve
}

// Target carries the ownership attributes of the instance a request
// targets. For create actions it describes the instance about to be
// created. A nil pointer means the instance has no such participant.
type Target struct {
	PatientID *uuid.UUID // linked patient profile owning or participating in the instance
	DoctorID  *uuid.UUID // linked doctor profile participating in the instance
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Scope classifies how much of a collection an actor may see.
type Scope uint8

const (
	// ScopeNone matches no instances.
	ScopeNone Scope = iota
	// ScopeAll matches every instance.
	ScopeAll
	// ScopeOwn matches instances the actor's linked profile owns or
	// participates in. With no linked profile it matches nothing.
	ScopeOwn
)

// Filter is the row-level predicate returned for list queries. The same
// predicate backs retrieve decisions, so an instance is visible in a
// listing exactly when it can be fetched individually.
type Filter struct {
	Scope     Scope
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

// Matches reports whether the filter admits the given instance.
func (f Filter) Matches(t Target) bool {
	switch f.Scope {
	case ScopeAll:
		return true
	case ScopeOwn:
		if f.DoctorID != nil && t.DoctorID != nil && *f.DoctorID == *t.DoctorID {
			return true
		}
		if f.PatientID != nil && t.PatientID != nil && *f.PatientID == *t.PatientID {
			return true
		}
		return false
	default:
		return false
	}
}

// Empty reports whether the filter can never match anything.
func (f Filter) Empty() bool {
	if f.Scope == ScopeNone {
		return true
	}
	return f.Scope == ScopeOwn && f.DoctorID == nil && f.PatientID == nil
}

// readRule and writeRule encode one cell of the policy table.
type readRule uint8

const (
	readNone readRule = iota
	readAll
	readOwn         // own instances, any action
	readOwnReadOnly // own instances, list/retrieve only
)

type writeRule uint8

const (
	writeNone writeRule = iota
	writeAll
	writeOwn        // writes allowed only on instances the actor participates in
	writeCreateOnly // create allowed, no update/delete
)

type policyRow struct {
	read  map[Role]readRule
	write map[Role]writeRule
}

// policyTable is the single place per-role behavior is defined. Every
// handler consults Decide/RowFilter instead of re-deriving role logic.
// Absent entries mean deny.
var policyTable = map[Kind]policyRow{
	KindDepartment: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readAll, RoleNurse: readAll, RoleReceptionist: readAll, RolePatient: readAll},
		write: map[Role]writeRule{RoleAdmin: writeAll},
	},
	KindDoctor: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readAll, RoleNurse: readAll, RoleReceptionist: readAll, RolePatient: readAll},
		write: map[Role]writeRule{RoleAdmin: writeAll},
	},
	KindPatient: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readAll, RolePatient: readOwn},
		write: map[Role]writeRule{RoleAdmin: writeAll, RolePatient: writeCreateOnly},
	},
	KindAppointment: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readOwn, RolePatient: readOwn},
		write: map[Role]writeRule{RoleAdmin: writeAll, RoleDoctor: writeOwn, RolePatient: writeOwn},
	},
	KindMedicalRecord: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readAll, RolePatient: readOwnReadOnly},
		write: map[Role]writeRule{RoleAdmin: writeAll, RoleDoctor: writeAll},
	},
	KindPrescription: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleDoctor: readAll},
		write: map[Role]writeRule{RoleAdmin: writeAll, RoleDoctor: writeAll},
	},
	KindBilling: {
		read:  map[Role]readRule{RoleAdmin: readAll, RoleReceptionist: readAll, RolePatient: readOwnReadOnly},
		write: map[Role]writeRule{RoleAdmin: writeAll, RoleReceptionist: writeAll},
	},
}

// RowFilter returns the row-level filter scoping a list query of kind
// for the actor. An actor whose role grants "own" access but whose
// profile link is missing gets a filter that matches nothing.
func RowFilter(actor Actor, kind Kind) Filter {
	row, ok := policyTable[kind]
	if !ok {
		return Filter{Scope: ScopeNone}
	}
	switch row.read[actor.Role] {
	case readAll:
		return Filter{Scope: ScopeAll}
	case readOwn, readOwnReadOnly:
		return Filter{Scope: ScopeOwn, DoctorID: actor.DoctorID, PatientID: actor.PatientID}
	default:
		return Filter{Scope: ScopeNone}
	}
}

// Decide evaluates whether the actor may perform action on an instance
// of kind. target may be nil for list and create actions; for retrieve,
// update and delete it must describe the loaded instance. Read
// decisions are derived from RowFilter, so retrieve and list visibility
// never diverge.
func Decide(actor Actor, action Action, kind Kind, target *Target) Decision {
	row, ok := policyTable[kind]
	if !ok {
		return deny(fmt.Sprintf("no policy for %s", kind))
	}

	if action.ReadOnly() {
		f := RowFilter(actor, kind)
		if action == ActionList {
			if row.read[actor.Role] == readNone {
				return deny(fmt.Sprintf("%s may not list %s", actor.Role, kind))
			}
			// A matchless own-filter still allows listing; the result
			// set is simply empty.
			return allow("row filter applies")
		}
		if target == nil {
			return deny("retrieve requires a target instance")
		}
		if f.Matches(*target) {
			return allow("read scope matched")
		}
		return deny(fmt.Sprintf("%s may not retrieve this %s", actor.Role, kind))
	}

	wr := row.write[actor.Role]
	switch wr {
	case writeAll:
		return allow("write scope: all")
	case writeCreateOnly:
		if action == ActionCreate {
			return allow("self-service create")
		}
		return deny(fmt.Sprintf("%s may only create %s", actor.Role, kind))
	case writeOwn:
		if actor.DoctorID == nil && actor.PatientID == nil {
			return deny(fmt.Sprintf("%s has no linked profile", actor.Role))
		}
		if target == nil {
			return deny(fmt.Sprintf("%s on %s requires a target instance", action, kind))
		}
		own := Filter{Scope: ScopeOwn, DoctorID: actor.DoctorID, PatientID: actor.PatientID}
		if own.Matches(*target) {
			return allow("write scope: participant")
		}
		return deny(fmt.Sprintf("%s is not a participant of this %s", actor.Role, kind))
	default:
		return deny(fmt.Sprintf("%s may not %s %s", actor.Role, action, kind))
	}
}

package domain

import "time"

// Status is the lifecycle status of an account.
// The zero value is StatusUnset, the logged-out state.
type Status string

const (
	StatusUnset           Status = ""
	StatusNewAccount      Status = "new_account"
	StatusConfirmed       Status = "confirmed"
	StatusPendingDeletion Status = "pending_deletion"
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUnset:
		return "Unset"
	case StatusNewAccount:
		return "NewAccount"
	case StatusConfirmed:
		return "Confirmed"
	case StatusPendingDeletion:
		return "PendingDeletion"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusNewAccount, StatusConfirmed, StatusPendingDeletion:
		return true
	}
	return false
}

// StatusRecord pairs a status with the instant it was entered.
// At is nil if and only if Status is StatusUnset.
type StatusRecord struct {
	Status Status     `json:"status"`
	At     *time.Time `json:"status_timestamp,omitempty"`
}

// Normalize restores the At invariant on a record read from storage.
// Unknown statuses collapse to StatusUnset. A set status without a
// timestamp is stamped with now. It reports whether the record changed.
func (r *StatusRecord) Normalize(now time.Time) bool {
	changed := false
	if !r.Status.Valid() {
		r.Status = StatusUnset
		changed = true
	}
	switch {
	case r.Status == StatusUnset && r.At != nil:
		r.At = nil
		changed = true
	case r.Status != StatusUnset && r.At == nil:
		t := now
		r.At = &t
		changed = true
	}
	return changed
}

package app

import (
	"sync"
	"time"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// EventEmitter is called when the account status changes.
type EventEmitter interface {
	OnStatusChange(previous, current domain.Status, at *time.Time)
}

// AccountLifecycle manages the account status state machine.
//
// Every transition is unconditional and stamps the transition instant;
// guards only gate the derived queries. The status timestamp is present
// if and only if the status is not Unset.
type AccountLifecycle struct {
	mu           sync.RWMutex
	record       domain.StatusRecord
	policy       domain.Policy
	clock        ports.Clock
	logger       ports.Logger
	eventEmitter EventEmitter
}

// NewAccountLifecycle creates a lifecycle in the Unset state.
func NewAccountLifecycle(policy domain.Policy, clock ports.Clock, logger ports.Logger, emitter EventEmitter) *AccountLifecycle {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &AccountLifecycle{
		policy:       policy,
		clock:        clock,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// Status returns the current account status.
func (l *AccountLifecycle) Status() domain.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.record.Status
}

// StatusTimestamp returns the instant the current status was entered.
// ok is false when the status is Unset.
func (l *AccountLifecycle) StatusTimestamp() (ts time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.record.At == nil {
		return time.Time{}, false
	}
	return *l.record.At, true
}

// Record returns a copy of the current status record.
func (l *AccountLifecycle) Record() domain.StatusRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyRecord(l.record)
}

// Restore replaces the state with a record read from storage, restoring
// the timestamp invariant if needed. No event is emitted.
func (l *AccountLifecycle) Restore(r domain.StatusRecord) {
	r = copyRecord(r)
	if r.Normalize(l.clock.Now()) {
		l.logger.Warn("restored status record was inconsistent, normalized",
			ports.String("status", r.Status.String()),
		)
	}
	l.mu.Lock()
	l.record = r
	l.mu.Unlock()
}

// Login marks a freshly signed-in account as NewAccount.
func (l *AccountLifecycle) Login() {
	l.transitionTo(domain.StatusNewAccount, "login")
}

// Confirm moves the account into normal active standing.
func (l *AccountLifecycle) Confirm() {
	l.transitionTo(domain.StatusConfirmed, "confirm")
}

// RequestDeletion starts the deletion grace period.
func (l *AccountLifecycle) RequestDeletion() {
	l.transitionTo(domain.StatusPendingDeletion, "deletion requested")
}

// CancelDeletion returns the account to Confirmed. The prior status is not checked.
func (l *AccountLifecycle) CancelDeletion() {
	l.transitionTo(domain.StatusConfirmed, "deletion cancelled")
}

// Logout clears the status and its timestamp.
func (l *AccountLifecycle) Logout() {
	l.transitionTo(domain.StatusUnset, "logout")
}

// Reset clears the status and its timestamp.
func (l *AccountLifecycle) Reset() {
	l.transitionTo(domain.StatusUnset, "reset")
}

// IsEligibleForCleanup reports whether the account has stayed unconfirmed
// past the cleanup window.
func (l *AccountLifecycle) IsEligibleForCleanup() bool {
	now := l.clock.Now()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.EligibleForCleanup(l.record, l.policy, now)
}

// IsInGracePeriod reports whether a deletion request can still be cancelled.
func (l *AccountLifecycle) IsInGracePeriod() bool {
	now := l.clock.Now()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.InGracePeriod(l.record, l.policy, now)
}

// ShouldShowCreateModal reports whether a new account with no projects
// should be prompted to create one.
func (l *AccountLifecycle) ShouldShowCreateModal(projectCount int) bool {
	return domain.ShouldShowCreateModal(l.Status(), projectCount)
}

// Policy returns the time windows used by the derived queries.
func (l *AccountLifecycle) Policy() domain.Policy {
	return l.policy
}

func (l *AccountLifecycle) transitionTo(newStatus domain.Status, reason string) {
	now := l.clock.Now()

	l.mu.Lock()
	oldStatus := l.record.Status
	next := domain.StatusRecord{Status: newStatus}
	if newStatus != domain.StatusUnset {
		// Stamps strictly increase even when the clock does not advance.
		if prev := l.record.At; prev != nil && !now.After(*prev) {
			now = prev.Add(time.Nanosecond)
		}
		next.At = &now
	}
	l.record = next
	at := copyRecord(next).At
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStatusChange(oldStatus, newStatus, at)
	}

	l.logger.Info("status transition",
		ports.String("from", oldStatus.String()),
		ports.String("to", newStatus.String()),
		ports.String("reason", reason),
	)
}

func copyRecord(r domain.StatusRecord) domain.StatusRecord {
	if r.At != nil {
		t := *r.At
		r.At = &t
	}
	return r
}

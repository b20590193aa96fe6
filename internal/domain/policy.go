package domain

import "time"

// Default time windows for the derived account queries.
const (
	DefaultCleanupAfter = 30 * 24 * time.Hour
	DefaultGracePeriod  = 7 * 24 * time.Hour
)

// Policy holds the time windows used by the derived queries.
type Policy struct {
	// CleanupAfter is how long an account may stay in NewAccount before it
	// becomes a purge candidate.
	CleanupAfter time.Duration

	// GracePeriod is how long a deletion request stays cancellable.
	GracePeriod time.Duration
}

// DefaultPolicy returns the 30-day cleanup and 7-day grace windows.
func DefaultPolicy() Policy {
	return Policy{
		CleanupAfter: DefaultCleanupAfter,
		GracePeriod:  DefaultGracePeriod,
	}
}

// EligibleForCleanup reports whether an unconfirmed account has been sitting
// in NewAccount for strictly longer than p.CleanupAfter.
// An account that is exactly CleanupAfter old is not yet eligible.
func EligibleForCleanup(r StatusRecord, p Policy, now time.Time) bool {
	if r.Status != StatusNewAccount || r.At == nil {
		return false
	}
	return r.At.Before(now.Add(-p.CleanupAfter))
}

// InGracePeriod reports whether a deletion request is still inside the
// cancellable window. A request exactly GracePeriod old is outside it.
func InGracePeriod(r StatusRecord, p Policy, now time.Time) bool {
	if r.Status != StatusPendingDeletion || r.At == nil {
		return false
	}
	return r.At.After(now.Add(-p.GracePeriod))
}

// ShouldShowCreateModal reports whether a new account with no projects
// should be prompted to create its first one.
func ShouldShowCreateModal(status Status, projectCount int) bool {
	return status == StatusNewAccount && projectCount == 0
}

package accountstore

import (
	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// Account types re-exported from the internal domain.
type (
	// Status is the account lifecycle status.
	Status = domain.Status

	// Profile holds the user-facing account fields.
	Profile = domain.Profile

	// ProfileInput is a partial profile update. Empty fields keep the previous value.
	ProfileInput = domain.ProfileInput

	// Settings holds the account's preference settings.
	Settings = domain.Settings

	// SettingsPatch is a partial settings update. Nil fields keep the previous value.
	SettingsPatch = domain.SettingsPatch

	// Theme is the UI colour scheme preference.
	Theme = domain.Theme

	// AccountRecord is the full persisted account document.
	AccountRecord = domain.AccountRecord

	// Project is an entry in the account's project list.
	Project = domain.Project

	// Member is an entry in the account's team.
	Member = domain.Member

	// Role is a team member's role.
	Role = domain.Role

	// SlotStore is a durable key-value store of serialized state slots.
	SlotStore = ports.SlotStore

	// Clock supplies the current instant.
	Clock = ports.Clock

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field
)

// Account statuses.
const (
	StatusUnset           = domain.StatusUnset
	StatusNewAccount      = domain.StatusNewAccount
	StatusConfirmed       = domain.StatusConfirmed
	StatusPendingDeletion = domain.StatusPendingDeletion
)

// Themes.
const (
	ThemeSystem = domain.ThemeSystem
	ThemeLight  = domain.ThemeLight
	ThemeDark   = domain.ThemeDark
)

// Team roles.
const (
	RoleOwner  = domain.RoleOwner
	RoleAdmin  = domain.RoleAdmin
	RoleMember = domain.RoleMember
)

// Errors, checkable with errors.Is.
var (
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrCorruptRecord      = domain.ErrCorruptRecord
	ErrUnknownBackend     = domain.ErrUnknownBackend
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrWatchUnsupported   = domain.ErrWatchUnsupported
	ErrAlreadyOpen        = domain.ErrAlreadyOpen
	ErrNotOpen            = domain.ErrNotOpen
)

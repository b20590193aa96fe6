package domain

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// Settings holds the account's preference settings.
type Settings struct {
	Theme              Theme  `json:"theme"`
	Language           string `json:"language"`
	EmailNotifications bool   `json:"email_notifications"`
	CompactMode        bool   `json:"compact_mode"`
}

// DefaultSettings returns the settings of a fresh account.
func DefaultSettings() Settings {
	return Settings{
		Theme:              ThemeSystem,
		Language:           "en",
		EmailNotifications: true,
	}
}

// SettingsPatch is a partial settings update. Nil fields keep the previous value.
type SettingsPatch struct {
	Theme              *Theme
	Language           *string
	EmailNotifications *bool
	CompactMode        *bool
}

// Apply returns s with the patch merged in, and the names of any fields
// that were rejected. An unknown theme or an empty language keeps the
// previous value.
func (s Settings) Apply(p SettingsPatch) (Settings, []string) {
	out := s
	var rejected []string

	if p.Theme != nil {
		if p.Theme.Valid() {
			out.Theme = *p.Theme
		} else {
			rejected = append(rejected, "theme")
		}
	}
	if p.Language != nil {
		if *p.Language != "" {
			out.Language = *p.Language
		} else {
			rejected = append(rejected, "language")
		}
	}
	if p.EmailNotifications != nil {
		out.EmailNotifications = *p.EmailNotifications
	}
	if p.CompactMode != nil {
		out.CompactMode = *p.CompactMode
	}
	return out, rejected
}

// fill replaces zero-valued fields of a decoded record with defaults.
// Bool fields are taken as stored.
func (s Settings) fill() Settings {
	d := DefaultSettings()
	if !s.Theme.Valid() {
		s.Theme = d.Theme
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	return s
}

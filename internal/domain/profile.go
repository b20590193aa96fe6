package domain

// Profile holds the user-facing account fields.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Company   string `json:"company"`
}

// ProfileInput is a partial profile update. Empty fields keep the
// previous value.
type ProfileInput struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
	Company   string
}

// Merge returns p updated with the non-empty fields of in.
func (p Profile) Merge(in ProfileInput) Profile {
	out := p
	out.ID = coalesce(in.ID, p.ID)
	out.Email = coalesce(in.Email, p.Email)
	out.Name = coalesce(in.Name, p.Name)
	out.AvatarURL = coalesce(in.AvatarURL, p.AvatarURL)
	out.Company = coalesce(in.Company, p.Company)
	return out
}

// IsEmpty returns true if no profile field is set.
func (p Profile) IsEmpty() bool {
	return p == Profile{}
}

func coalesce(v, prev string) string {
	if v == "" {
		return prev
	}
	return v
}

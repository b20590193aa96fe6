package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/accountstore/pkg/accountstore"
)

type row struct {
	key   string
	value string
}

// statusView is the printed form of the account status.
type statusView struct {
	Status                string     `json:"status"`
	StatusTimestamp       *time.Time `json:"status_timestamp,omitempty"`
	Authenticated         bool       `json:"is_authenticated"`
	Email                 string     `json:"email,omitempty"`
	EligibleForCleanup    bool       `json:"eligible_for_cleanup"`
	InGracePeriod         bool       `json:"in_grace_period"`
	ShouldShowCreateModal bool       `json:"should_show_create_modal"`
	Projects              int        `json:"projects"`
	Members               int        `json:"members"`
}

func (c *cli) printStatus(cmd *cobra.Command, s *accountstore.AccountStore) error {
	projects := len(s.Projects())
	v := statusView{
		Status:                s.Status().String(),
		Authenticated:         s.IsAuthenticated(),
		Email:                 s.Profile().Email,
		EligibleForCleanup:    s.IsEligibleForCleanup(),
		InGracePeriod:         s.IsInGracePeriod(),
		ShouldShowCreateModal: s.ShouldShowCreateModal(projects),
		Projects:              projects,
		Members:               len(s.Members()),
	}
	if ts, ok := s.StatusTimestamp(); ok {
		v.StatusTimestamp = &ts
	}

	ts := "-"
	if v.StatusTimestamp != nil {
		ts = v.StatusTimestamp.Format(time.RFC3339)
	}
	return c.print(cmd, v, []row{
		{"status", v.Status},
		{"since", ts},
		{"authenticated", strconv.FormatBool(v.Authenticated)},
		{"email", v.Email},
		{"eligible for cleanup", strconv.FormatBool(v.EligibleForCleanup)},
		{"in grace period", strconv.FormatBool(v.InGracePeriod)},
		{"show create modal", strconv.FormatBool(v.ShouldShowCreateModal)},
		{"projects", strconv.Itoa(v.Projects)},
		{"members", strconv.Itoa(v.Members)},
	})
}

// print writes v as JSON when --json is set and rows as an aligned table
// otherwise.
func (c *cli) print(cmd *cobra.Command, v any, rows []row) error {
	out := cmd.OutOrStdout()
	if c.cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", r.key, r.value); err != nil {
			return err
		}
	}
	return w.Flush()
}

func profileRows(p accountstore.Profile) []row {
	return []row{
		{"id", p.ID},
		{"email", p.Email},
		{"name", p.Name},
		{"avatar url", p.AvatarURL},
		{"company", p.Company},
	}
}

func settingsRows(s accountstore.Settings) []row {
	return []row{
		{"theme", string(s.Theme)},
		{"language", s.Language},
		{"email notifications", strconv.FormatBool(s.EmailNotifications)},
		{"compact mode", strconv.FormatBool(s.CompactMode)},
	}
}

func projectRows(ps []accountstore.Project) []row {
	rows := make([]row, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, row{p.ID, p.Name})
	}
	return rows
}

func memberRows(ms []accountstore.Member) []row {
	rows := make([]row, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, row{m.ID, fmt.Sprintf("%s\t%s", m.Email, m.Role)})
	}
	return rows
}

func sweepRows(r accountstore.SweepResult) []row {
	return []row{
		{"status", r.Status.String()},
		{"eligible for cleanup", strconv.FormatBool(r.EligibleForCleanup)},
		{"grace elapsed", strconv.FormatBool(r.GraceElapsed)},
		{"purged", strconv.FormatBool(r.Purged)},
	}
}

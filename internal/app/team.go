package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// TeamState holds the account's team members. It is reset on logout.
type TeamState struct {
	list  slotList[domain.Member]
	clock ports.Clock
}

// NewTeamState creates an empty team persisted under key.
func NewTeamState(key string, slots ports.SlotStore, clock ports.Clock, logger ports.Logger) *TeamState {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &TeamState{
		list:  slotList[domain.Member]{key: key, slots: slots, logger: logger},
		clock: clock,
	}
}

// Load reads the persisted team, replacing the in-memory list.
func (t *TeamState) Load(ctx context.Context) error {
	return t.list.load(ctx)
}

// Add invites a member. An empty role defaults to member.
func (t *TeamState) Add(ctx context.Context, email string, role domain.Role) (domain.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Member{}, fmt.Errorf("%w: member email %q", domain.ErrInvalidInput, email)
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return domain.Member{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	m := domain.Member{
		ID:      uuid.NewString(),
		Email:   email,
		Role:    role,
		AddedAt: t.clock.Now().UTC(),
	}
	t.list.append(m)
	return m, t.list.save(ctx)
}

// Remove deletes a member by ID or email and persists the team.
func (t *TeamState) Remove(ctx context.Context, idOrEmail string) (bool, error) {
	if !t.list.removeFunc(func(m domain.Member) bool { return m.ID == idOrEmail || m.Email == idOrEmail }) {
		return false, nil
	}
	return true, t.list.save(ctx)
}

// List returns a copy of the members in insertion order.
func (t *TeamState) List() []domain.Member {
	return t.list.list()
}

// Count returns the number of members.
func (t *TeamState) Count() int {
	return t.list.count()
}

// Reset clears the in-memory team. The account store removes the slot.
func (t *TeamState) Reset() {
	t.list.reset()
}

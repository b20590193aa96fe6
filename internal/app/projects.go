package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// ProjectList holds the account's projects. It is reset on logout.
type ProjectList struct {
	list  slotList[domain.Project]
	clock ports.Clock
}

// NewProjectList creates an empty project list persisted under key.
func NewProjectList(key string, slots ports.SlotStore, clock ports.Clock, logger ports.Logger) *ProjectList {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &ProjectList{
		list:  slotList[domain.Project]{key: key, slots: slots, logger: logger},
		clock: clock,
	}
}

// Load reads the persisted projects, replacing the in-memory list.
func (p *ProjectList) Load(ctx context.Context) error {
	return p.list.load(ctx)
}

// Add creates a project with a fresh ID and persists the list.
func (p *ProjectList) Add(ctx context.Context, name string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}
	project := domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: p.clock.Now().UTC(),
	}
	p.list.append(project)
	return project, p.list.save(ctx)
}

// Remove deletes a project by ID and persists the list.
// It reports whether the project existed.
func (p *ProjectList) Remove(ctx context.Context, id string) (bool, error) {
	if !p.list.removeFunc(func(pr domain.Project) bool { return pr.ID == id }) {
		return false, nil
	}
	return true, p.list.save(ctx)
}

// List returns a copy of the projects in insertion order.
func (p *ProjectList) List() []domain.Project {
	return p.list.list()
}

// Count returns the number of projects.
func (p *ProjectList) Count() int {
	return p.list.count()
}

// Reset clears the in-memory list. The account store removes the slot.
func (p *ProjectList) Reset() {
	p.list.reset()
}

package accountstore_test

import (
	"context"
	"fmt"

	"github.com/bft-labs/accountstore/pkg/accountstore"
)

// ExampleNew demonstrates the account lifecycle on an in-memory store.
func ExampleNew() {
	ctx := context.Background()

	s, err := accountstore.New(accountstore.Config{Backend: accountstore.BackendMemory})
	if err != nil {
		fmt.Printf("failed to create store: %v\n", err)
		return
	}
	if err := s.Open(ctx); err != nil {
		fmt.Printf("failed to open: %v\n", err)
		return
	}
	defer s.Close(ctx)

	_ = s.Login(ctx, accountstore.ProfileInput{Email: "ada@example.com"})
	fmt.Println(s.Status(), s.NeedsFirstProject())

	_ = s.Confirm(ctx)
	_ = s.RequestDeletion(ctx)
	fmt.Println(s.Status(), s.IsInGracePeriod())

	_ = s.CancelDeletion(ctx)
	_ = s.Logout(ctx)
	fmt.Println(s.Status())

	// Output:
	// NewAccount true
	// PendingDeletion true
	// Unset
}

// Example_withEventHandler demonstrates how to receive status changes.
func Example_withEventHandler() {
	ctx := context.Background()

	s, err := accountstore.New(accountstore.Config{Backend: accountstore.BackendMemory},
		accountstore.WithEventHandler(&printingHandler{}),
	)
	if err != nil {
		fmt.Printf("failed to create store: %v\n", err)
		return
	}
	_ = s.Open(ctx)
	defer s.Close(ctx)

	_ = s.Login(ctx, accountstore.ProfileInput{})
	_ = s.Confirm(ctx)

	// Output:
	// Unset -> NewAccount
	// NewAccount -> Confirmed
}

// printingHandler implements accountstore.EventHandler.
type printingHandler struct {
	accountstore.BaseEventHandler // Embed for no-op defaults
}

func (h *printingHandler) OnStatusChange(event accountstore.StatusChangeEvent) {
	fmt.Printf("%s -> %s\n", event.Previous, event.Current)
}

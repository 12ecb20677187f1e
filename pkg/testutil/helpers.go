// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/internal/registration"
)

// FindCard finds a card by MLS number in the cards slice.
// Returns a pointer to the card if found, nil otherwise.
func FindCard(cards []listings.Card, mls string) *listings.Card {
	for i := range cards {
		if cards[i].Listing.MLS == mls {
			return &cards[i]
		}
	}
	return nil
}

// FixedCode returns a code generator that always issues code.
func FixedCode(code string) registration.CodeGenerator {
	return func() string { return code }
}

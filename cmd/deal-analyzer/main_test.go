package main

import (
	"errors"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/listings"
)

func TestSelectListings(t *testing.T) {
	catalog, err := listings.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	all, err := selectListings(catalog, " ")
	if err != nil || len(all) != len(catalog.All()) {
		t.Fatalf("empty selection should return the catalogue, got %d listings (err %v)", len(all), err)
	}

	picked, err := selectListings(catalog, "W9010007, E9010001,")
	if err != nil {
		t.Fatalf("selectListings() error = %v", err)
	}
	if len(picked) != 2 || picked[0].MLS != "W9010007" || picked[1].MLS != "E9010001" {
		t.Errorf("unexpected selection: %+v", picked)
	}

	if _, err := selectListings(catalog, "E9010001,ZZZ"); !errors.Is(err, listings.ErrNotFound) {
		t.Errorf("selectListings() error = %v, expected ErrNotFound", err)
	}
}

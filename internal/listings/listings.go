// Package listings serves the mock MLS catalogue and the per-mode card
// metrics shown while browsing.
package listings

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/deal-analyzer/pkg/datetime"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrNotFound is returned when no listing has the requested MLS number.
var ErrNotFound = errors.New("listing not found")

// Listing is a single property listing.
type Listing struct {
	MLS           string  `yaml:"mls" json:"mls"`
	Address       string  `yaml:"address" json:"address"`
	City          string  `yaml:"city" json:"city"`
	Area          string  `yaml:"area" json:"area,omitempty"`
	Neighbourhood string  `yaml:"neighbourhood" json:"neighbourhood,omitempty"`
	Price         float64 `yaml:"price" json:"price"`
	Beds          int     `yaml:"beds" json:"beds"`
	Baths         int     `yaml:"baths" json:"baths"`
	Type          string  `yaml:"type" json:"type,omitempty"`
	Sqft          float64 `yaml:"sqft" json:"sqft,omitempty"`
	Lot           string  `yaml:"lot" json:"lot,omitempty"`
	DaysOnMarket  int     `yaml:"dom" json:"dom"`
	Status        string  `yaml:"status" json:"status,omitempty"`
	ListDate      string  `yaml:"listDate" json:"listDate"`
	Photo         string  `yaml:"photo" json:"photo"`
	EstRent       float64 `yaml:"estRent" json:"estRent,omitempty"`
	LastSoldPrice float64 `yaml:"lastSoldPrice" json:"lastSoldPrice,omitempty"`
	LastSoldDate  string  `yaml:"lastSoldDate" json:"lastSoldDate,omitempty"`
}

// Catalog is an immutable, read-only set of listings.
type Catalog struct {
	listings []Listing
	byMLS    map[string]int
}

type catalogFile struct {
	Listings []Listing `yaml:"listings"`
}

// LoadCatalog parses the embedded mock catalogue.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a YAML catalogue document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse listing catalogue: %w", err)
	}

	c := &Catalog{
		listings: make([]Listing, 0, len(file.Listings)),
		byMLS:    make(map[string]int, len(file.Listings)),
	}
	for _, l := range file.Listings {
		if l.MLS == "" {
			return nil, fmt.Errorf("listing at %q has no MLS number", l.Address)
		}
		if _, dup := c.byMLS[l.MLS]; dup {
			return nil, fmt.Errorf("duplicate MLS number %s", l.MLS)
		}
		if l.Price < 0 || l.EstRent < 0 {
			return nil, fmt.Errorf("listing %s has a negative price or rent", l.MLS)
		}
		if err := checkDates(l); err != nil {
			return nil, fmt.Errorf("listing %s: %w", l.MLS, err)
		}
		c.byMLS[l.MLS] = len(c.listings)
		c.listings = append(c.listings, l)
	}
	return c, nil
}

// All returns the listings in catalogue order. The slice is a copy.
func (c *Catalog) All() []Listing {
	out := make([]Listing, len(c.listings))
	copy(out, c.listings)
	return out
}

// Get returns the listing with the given MLS number.
func (c *Catalog) Get(mls string) (Listing, error) {
	idx, ok := c.byMLS[mls]
	if !ok {
		return Listing{}, fmt.Errorf("%w: %s", ErrNotFound, mls)
	}
	return c.listings[idx], nil
}

// MLSNumbers returns all MLS numbers sorted ascending.
func (c *Catalog) MLSNumbers() []string {
	numbers := make([]string, 0, len(c.byMLS))
	for mls := range c.byMLS {
		numbers = append(numbers, mls)
	}
	sort.Strings(numbers)
	return numbers
}

// checkDates validates the optional list and last-sold dates.
func checkDates(l Listing) error {
	for _, d := range []string{l.ListDate, l.LastSoldDate} {
		if d == "" {
			continue
		}
		if _, err := datetime.ParseDate(d); err != nil {
			return err
		}
	}
	if l.ListDate != "" && l.LastSoldDate != "" {
		before, _ := datetime.DateBeforeDate(l.LastSoldDate, l.ListDate)
		if !before {
			return fmt.Errorf("last sold date %s is not before list date %s", l.LastSoldDate, l.ListDate)
		}
	}
	return nil
}

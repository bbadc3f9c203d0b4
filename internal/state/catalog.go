package state

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var catalogTOML []byte

type catalogFile struct {
	Items []catalogItem `toml:"item"`
}

type catalogItem struct {
	ID           string  `toml:"id"`
	Name         string  `toml:"name"`
	Category     string  `toml:"category"`
	Quantity     int     `toml:"quantity"`
	MinThreshold int     `toml:"min_threshold"`
	Unit         string  `toml:"unit"`
	UnitCost     float64 `toml:"unit_cost"`
}

// DefaultInventory loads the built-in inventory catalog that seeds a fresh
// account. Rehydration never lets an empty incoming list erase this.
func DefaultInventory() ([]InventoryItem, error) {
	var cf catalogFile
	if err := toml.Unmarshal(catalogTOML, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse inventory catalog: %w", err)
	}

	items := make([]InventoryItem, 0, len(cf.Items))
	for _, it := range cf.Items {
		items = append(items, InventoryItem{
			ID:           it.ID,
			Name:         it.Name,
			Category:     InventoryCategory(it.Category),
			Quantity:     it.Quantity,
			MinThreshold: it.MinThreshold,
			Unit:         it.Unit,
			UnitCost:     it.UnitCost,
		})
	}
	return items, nil
}

// DefaultStayPackages returns the stay products a new account offers before
// the operator customizes them.
func DefaultStayPackages() []StayPackage {
	return []StayPackage{
		{ID: "p1", Title: "Basic 8-Room Stay", Desc: "Full access to 8 guest rooms and standard common areas.", IconType: "home"},
		{ID: "p2", Title: "8-Room + Presidential Suite", Desc: "Premium upgrade including luxury presidential quarters.", IconType: "star"},
		{ID: "p3", Title: "Event Plus Package", Desc: "Accommodation combined with private garden venue access.", IconType: "sparkles"},
	}
}

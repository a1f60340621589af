package listing

import (
	"fmt"
	"strings"
)

// Category discriminates the four gear listing stores. Each category is
// persisted in its own table with a shared shape.
type Category string

const (
	CategoryBiking  Category = "Biking"
	CategoryCamping Category = "Camping"
	CategorySkiSnow Category = "SkiSnow"
	CategoryWater   Category = "Water"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryBiking, CategoryCamping, CategorySkiSnow, CategoryWater}
}

// IsValid returns true if the category is one of the four known stores.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBiking, CategoryCamping, CategorySkiSnow, CategoryWater:
		return true
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a wire value to a Category. Matching is
// case-insensitive, and the legacy "Ski" and "Snowboard" values map to
// SkiSnow, which stores both.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "biking":
		return CategoryBiking, nil
	case "camping":
		return CategoryCamping, nil
	case "skisnow", "ski", "snowboard":
		return CategorySkiSnow, nil
	case "water":
		return CategoryWater, nil
	default:
		return "", fmt.Errorf("invalid category: %q", s)
	}
}

// StoreRegistry maps each category to its listing store, resolved once per
// request instead of switching on the category at every call site.
type StoreRegistry struct {
	stores map[Category]Repository
}

// NewStoreRegistry creates an empty StoreRegistry.
func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{stores: make(map[Category]Repository)}
}

// Register binds a category to its store.
func (r *StoreRegistry) Register(c Category, store Repository) {
	r.stores[c] = store
}

// For returns the store for the given category.
func (r *StoreRegistry) For(c Category) (Repository, bool) {
	store, ok := r.stores[c]
	return store, ok
}

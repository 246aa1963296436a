package domain

import "strings"

// Category is a routing label. The set of categories is fixed at startup.
type Category string

const (
	CategoryReleases     Category = "releases"
	CategoryEngineering  Category = "engineering"
	CategoryNews         Category = "news"
	CategoryUnclassified Category = "unclassified"
)

// DefaultCategories is the category set used when the configuration names none.
var DefaultCategories = []Category{
	CategoryReleases,
	CategoryEngineering,
	CategoryNews,
}

// NormalizeCategory folds a feed label into the form used as a routing key.
func NormalizeCategory(label string) Category {
	return Category(strings.ToLower(strings.TrimSpace(label)))
}

func (c Category) String() string { return string(c) }

package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// CategoryAll is the sentinel that disables category filtering.
const CategoryAll = "all"

// Criteria narrows a product list. Zero-valued fields pass everything, so
// an empty Criteria is the identity filter.
type Criteria struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Colors   []string
	Sizes    []string
}

// Filter returns the products matching every populated criterion. The
// input slice is never mutated and applying the same criteria twice
// returns the same result.
func Filter(products []models.Product, criteria Criteria) []models.Product {
	matched := make([]models.Product, 0, len(products))
	for _, product := range products {
		if !matches(product, criteria) {
			continue
		}
		matched = append(matched, product)
	}
	return matched
}

func matches(product models.Product, criteria Criteria) bool {
	return matchesCategory(product, criteria.Category) &&
		matchesSearch(product, criteria.Search) &&
		matchesPrice(product.Price, criteria.MinPrice, criteria.MaxPrice) &&
		intersects(product.Colors, criteria.Colors) &&
		intersects(product.Sizes, criteria.Sizes)
}

func matchesCategory(product models.Product, category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == CategoryAll {
		return true
	}
	if product.Category == nil {
		return false
	}
	return strings.ToLower(product.Category.Slug) == category ||
		strings.ToLower(product.Category.Name) == category
}

func matchesSearch(product models.Product, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(product.Name), query) ||
		strings.Contains(strings.ToLower(product.Description), query)
}

// matchesPrice treats both bounds as inclusive.
func matchesPrice(price decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && price.LessThan(*min) {
		return false
	}
	if max != nil && price.GreaterThan(*max) {
		return false
	}
	return true
}

// intersects reports whether any selected option is offered. An empty
// selection passes.
func intersects(offered, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, want := range selected {
		for _, have := range offered {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

package recipe

import (
	"errors"
	"fmt"
)

// ErrInvalidTable reports a recipe table that cannot be used for balancing.
var ErrInvalidTable = errors.New("invalid recipe table")

// Table is an immutable recipe table indexed once at construction. It is
// safe for concurrent readers.
type Table struct {
	recipes   []Recipe
	byName    map[string]int
	byProduct map[string]int
	items     map[string]struct{}
}

// NewTable indexes recipes in the given declaration order. Declaration order
// decides which recipe wins when several produce the same item.
func NewTable(recipes []Recipe) (*Table, error) {
	t := &Table{
		recipes:   make([]Recipe, 0, len(recipes)),
		byName:    make(map[string]int, len(recipes)),
		byProduct: make(map[string]int),
		items:     make(map[string]struct{}),
	}

	for _, r := range recipes {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: recipe without a name", ErrInvalidTable)
		}
		if _, exists := t.byName[r.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate recipe %q", ErrInvalidTable, r.Name)
		}
		if err := validateRecipe(r); err != nil {
			return nil, err
		}

		idx := len(t.recipes)
		t.recipes = append(t.recipes, r)
		t.byName[r.Name] = idx
		for _, p := range r.Products {
			if _, seen := t.byProduct[p.Name]; !seen {
				t.byProduct[p.Name] = idx
			}
			t.items[p.Name] = struct{}{}
		}
		for _, ing := range r.Ingredients {
			t.items[ing.Name] = struct{}{}
		}
	}

	return t, nil
}

func validateRecipe(r Recipe) error {
	if r.Energy == nil || r.Energy.Sign() <= 0 {
		return fmt.Errorf("%w: recipe %q must have a positive energy", ErrInvalidTable, r.Name)
	}
	if len(r.Products) == 0 {
		return fmt.Errorf("%w: recipe %q has no products", ErrInvalidTable, r.Name)
	}
	for _, ing := range r.Ingredients {
		if ing.Name == "" || ing.Amount == nil || ing.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: recipe %q has an invalid ingredient %q", ErrInvalidTable, r.Name, ing.Name)
		}
	}
	for _, p := range r.Products {
		if p.Name == "" || p.Amount == nil || p.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: recipe %q has an invalid product %q", ErrInvalidTable, r.Name, p.Name)
		}
		if p.Probability != nil && (p.Probability.Sign() <= 0 || p.Probability.Cmp(ratOne) > 0) {
			return fmt.Errorf("%w: recipe %q product %q probability must be in (0, 1]", ErrInvalidTable, r.Name, p.Name)
		}
	}
	return nil
}

// Len returns the number of recipes in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.recipes)
}

// Names returns recipe names in declaration order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.recipes))
	for i, r := range t.recipes {
		names[i] = r.Name
	}
	return names
}

// HasItem reports whether any recipe consumes or produces item.
func (t *Table) HasItem(item string) bool {
	if t == nil {
		return false
	}
	_, ok := t.items[item]
	return ok
}

// Recipe returns the recipe with the given name.
func (t *Table) Recipe(name string) (Recipe, bool) {
	if t == nil {
		return Recipe{}, false
	}
	idx, ok := t.byName[name]
	if !ok {
		return Recipe{}, false
	}
	return t.recipes[idx], true
}

// TransformByProduct resolves the transform that produces item. A recipe
// named after the item wins; otherwise the first recipe in declaration order
// listing the item as a product is used. The boolean is false when nothing
// produces the item, which callers treat as a raw input.
//
// Each call returns a freshly normalized transform.
func (t *Table) TransformByProduct(item string) (Transform, bool) {
	if t == nil {
		return Transform{}, false
	}
	if idx, ok := t.byName[item]; ok {
		return ToTransform(t.recipes[idx]), true
	}
	if idx, ok := t.byProduct[item]; ok {
		return ToTransform(t.recipes[idx]), true
	}
	return Transform{}, false
}

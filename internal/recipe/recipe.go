// Package recipe models crafting recipes and their canonical transform form.
package recipe

import (
	"math/big"
)

// Ingredient is one consumed entry of a recipe.
type Ingredient struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Amount *big.Rat `json:"amount"`
}

// Product is one produced entry of a recipe. A nil Probability means the
// product is always produced.
type Product struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Amount      *big.Rat `json:"amount"`
	Probability *big.Rat `json:"probability,omitempty"`
}

// Recipe is a single record of the recipe table.
type Recipe struct {
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Order       string       `json:"order,omitempty"`
	Enabled     bool         `json:"enabled"`
	Hidden      bool         `json:"hidden"`
	Ingredients []Ingredient `json:"ingredients"`
	Products    []Product    `json:"products"`
	Energy      *big.Rat     `json:"energy"`
}

// ItemStack is a quantity of a named item.
type ItemStack struct {
	Item  string
	Count *big.Rat
}

// Transform is the canonical form of a recipe: one run consumes From and
// produces To over Time.
type Transform struct {
	Name string
	From []ItemStack
	To   []ItemStack
	Time *big.Rat
}

// Output returns the output stack for item, if the transform produces it.
func (t Transform) Output(item string) (ItemStack, bool) {
	for _, out := range t.To {
		if out.Item == item {
			return out, true
		}
	}
	return ItemStack{}, false
}

// Produces reports whether item is among the transform outputs.
func (t Transform) Produces(item string) bool {
	_, ok := t.Output(item)
	return ok
}

// ToTransform normalizes a recipe. Ingredient and product order is kept and
// a product probability below one scales its amount to the expected yield.
func ToTransform(r Recipe) Transform {
	from := make([]ItemStack, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		from = append(from, ItemStack{Item: ing.Name, Count: cloneRat(ing.Amount)})
	}

	one := big.NewRat(1, 1)
	to := make([]ItemStack, 0, len(r.Products))
	for _, prod := range r.Products {
		count := cloneRat(prod.Amount)
		if prod.Probability != nil && prod.Probability.Cmp(one) < 0 {
			count.Mul(count, prod.Probability)
		}
		to = append(to, ItemStack{Item: prod.Name, Count: count})
	}

	return Transform{
		Name: r.Name,
		From: from,
		To:   to,
		Time: cloneRat(r.Energy),
	}
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}

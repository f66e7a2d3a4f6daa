package recipe

import (
	"fmt"
	"math/big"
	"os"

	"github.com/iwvelando/craft-balancer/pkg/ratutil"
	"github.com/tidwall/gjson"
)

var ratOne = big.NewRat(1, 1)

// LoadTable reads a recipe dump from disk. See ParseTable.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe table %s: %w", path, err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe table %s: %w", path, err)
	}
	return table, nil
}

// ParseTable parses a JSON object keyed by recipe name. Object keys are
// walked in document order, which becomes the table's declaration order.
// Numbers are read from their literal text so "3.2" is exactly 16/5.
func ParseTable(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidTable)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object keyed by recipe name", ErrInvalidTable)
	}

	var (
		recipes  []Recipe
		parseErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		r, err := parseRecipe(key.String(), value)
		if err != nil {
			parseErr = err
			return false
		}
		recipes = append(recipes, r)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return NewTable(recipes)
}

func parseRecipe(key string, v gjson.Result) (Recipe, error) {
	if !v.IsObject() {
		return Recipe{}, fmt.Errorf("%w: recipe %q is not an object", ErrInvalidTable, key)
	}

	name := v.Get("name").String()
	if name == "" {
		name = key
	}

	energy, err := readRat(v.Get("energy"))
	if err != nil {
		return Recipe{}, fmt.Errorf("%w: recipe %q energy: %v", ErrInvalidTable, name, err)
	}

	r := Recipe{
		Name:     name,
		Category: v.Get("category").String(),
		Order:    v.Get("order").String(),
		Enabled:  !v.Get("enabled").Exists() || v.Get("enabled").Bool(),
		Hidden:   v.Get("hidden").Bool(),
		Energy:   energy,
	}

	var entryErr error
	v.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		amount, err := readAmount(ing)
		if err != nil {
			entryErr = fmt.Errorf("%w: recipe %q ingredient %q: %v", ErrInvalidTable, name, ing.Get("name").String(), err)
			return false
		}
		r.Ingredients = append(r.Ingredients, Ingredient{
			Type:   ing.Get("type").String(),
			Name:   ing.Get("name").String(),
			Amount: amount,
		})
		return true
	})
	if entryErr != nil {
		return Recipe{}, entryErr
	}

	v.Get("products").ForEach(func(_, prod gjson.Result) bool {
		amount, err := readAmount(prod)
		if err != nil {
			entryErr = fmt.Errorf("%w: recipe %q product %q: %v", ErrInvalidTable, name, prod.Get("name").String(), err)
			return false
		}
		p := Product{
			Type:   prod.Get("type").String(),
			Name:   prod.Get("name").String(),
			Amount: amount,
		}
		if prob := prod.Get("probability"); prob.Exists() && prob.Type != gjson.Null {
			p.Probability, err = readRat(prob)
			if err != nil {
				entryErr = fmt.Errorf("%w: recipe %q product %q probability: %v", ErrInvalidTable, name, p.Name, err)
				return false
			}
		}
		r.Products = append(r.Products, p)
		return true
	})
	if entryErr != nil {
		return Recipe{}, entryErr
	}

	return r, nil
}

// readAmount reads "amount", falling back to the midpoint of
// "amount_min"/"amount_max" used by randomized products.
func readAmount(v gjson.Result) (*big.Rat, error) {
	if amount := v.Get("amount"); amount.Exists() {
		return readRat(amount)
	}
	lo, hi := v.Get("amount_min"), v.Get("amount_max")
	if !lo.Exists() || !hi.Exists() {
		return nil, fmt.Errorf("missing amount")
	}
	minAmount, err := readRat(lo)
	if err != nil {
		return nil, err
	}
	maxAmount, err := readRat(hi)
	if err != nil {
		return nil, err
	}
	mid := new(big.Rat).Add(minAmount, maxAmount)
	return mid.Quo(mid, big.NewRat(2, 1)), nil
}

func readRat(v gjson.Result) (*big.Rat, error) {
	switch v.Type {
	case gjson.Number:
		return ratutil.FromDecimalString(v.Raw)
	case gjson.String:
		return ratutil.FromDecimalString(v.Str)
	default:
		return nil, fmt.Errorf("expected a number, got %q", v.Raw)
	}
}

package balancer

import (
	"math/big"

	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/pkg/ratutil"
)

// ItemRequirement is the throughput slot of one stack input or output.
// For an output, UnusedTP is surplus no consumer has claimed yet. For an
// input, it is demand no producer has met yet.
type ItemRequirement struct {
	Item     recipe.ItemStack
	UsedTP   *big.Rat
	UnusedTP *big.Rat
}

func newRequirement(item recipe.ItemStack) *ItemRequirement {
	return &ItemRequirement{
		Item:     recipe.ItemStack{Item: item.Item, Count: ratutil.Clone(item.Count)},
		UsedTP:   ratutil.Zero(),
		UnusedTP: ratutil.Zero(),
	}
}

// TransformStack is a transform run Count times, with throughput accounting
// per input and output.
type TransformStack struct {
	// Name is the recipe behind the stack. Raw stubs carry the item name.
	Name  string
	From  []*ItemRequirement
	To    []*ItemRequirement
	Time  *big.Rat
	Count int

	raw bool
}

// NewStack wraps every input and output of t into a zeroed slot.
func NewStack(t recipe.Transform) *TransformStack {
	s := &TransformStack{
		Name: t.Name,
		From: make([]*ItemRequirement, 0, len(t.From)),
		To:   make([]*ItemRequirement, 0, len(t.To)),
		Time: ratutil.Clone(t.Time),
	}
	for _, in := range t.From {
		s.From = append(s.From, newRequirement(in))
	}
	for _, out := range t.To {
		s.To = append(s.To, newRequirement(out))
	}
	return s
}

// newRawStack builds an unmetered supply of item: no inputs, one output of
// count 1 and time 1, so each scaled unit adds one unit of throughput.
func newRawStack(item string) *TransformStack {
	return &TransformStack{
		Name: item,
		To:   []*ItemRequirement{newRequirement(recipe.ItemStack{Item: item, Count: ratutil.Int(1)})},
		Time: ratutil.Int(1),
		raw:  true,
	}
}

// Raw reports whether the stack is an external supply stub.
func (s *TransformStack) Raw() bool {
	return s.raw
}

// Scale adds runs to the stack. Every slot gains count*runs/time of unused
// throughput. Raw stubs keep Count at zero while balancing.
func (s *TransformStack) Scale(runs int) {
	if runs == 0 {
		return
	}
	if !s.raw {
		s.Count += runs
	}
	factor := new(big.Rat).Quo(ratutil.Int(int64(runs)), s.Time)
	for _, slot := range s.From {
		slot.UnusedTP.Add(slot.UnusedTP, new(big.Rat).Mul(slot.Item.Count, factor))
	}
	for _, slot := range s.To {
		slot.UnusedTP.Add(slot.UnusedTP, new(big.Rat).Mul(slot.Item.Count, factor))
	}
}

// Output returns the output slot for item, or nil.
func (s *TransformStack) Output(item string) *ItemRequirement {
	for _, slot := range s.To {
		if slot.Item.Item == item {
			return slot
		}
	}
	return nil
}

// Input returns the input slot for item, or nil.
func (s *TransformStack) Input(item string) *ItemRequirement {
	for _, slot := range s.From {
		if slot.Item.Item == item {
			return slot
		}
	}
	return nil
}

// perRun is the throughput one extra run adds to slot.
func (s *TransformStack) perRun(slot *ItemRequirement) *big.Rat {
	return new(big.Rat).Quo(slot.Item.Count, s.Time)
}

// Package report provides serializable views of balancing results.
package report

import (
	"fmt"

	"github.com/iwvelando/craft-balancer/internal/balancer"
	"github.com/iwvelando/craft-balancer/pkg/format"
	"github.com/iwvelando/craft-balancer/pkg/ratutil"
)

// Throughput is one input or output slot of a stack.
type Throughput struct {
	Item     string  `json:"item" yaml:"item"`
	Amount   float64 `json:"amount" yaml:"amount"`
	UsedTP   float64 `json:"usedTP" yaml:"usedTP"`
	UnusedTP float64 `json:"unusedTP" yaml:"unusedTP"`
}

// Stack is one production stage of a plan.
type Stack struct {
	Recipe  string       `json:"recipe" yaml:"recipe"`
	Raw     bool         `json:"raw" yaml:"raw"`
	Count   int          `json:"count" yaml:"count"`
	Time    float64      `json:"time" yaml:"time"`
	Inputs  []Throughput `json:"inputs" yaml:"inputs"`
	Outputs []Throughput `json:"outputs" yaml:"outputs"`
}

// Result captures the balanced plan for one target count.
type Result struct {
	Target            string     `json:"target" yaml:"target"`
	Count             int        `json:"count" yaml:"count"`
	Efficiency        float64    `json:"efficiency" yaml:"efficiency"`
	EfficiencyDisplay string     `json:"efficiencyDisplay" yaml:"efficiencyDisplay"`
	Used              float64    `json:"used" yaml:"used"`
	Wasted            float64    `json:"wasted" yaml:"wasted"`
	Demand            Throughput `json:"demand" yaml:"demand"`
	Iterations        int        `json:"iterations" yaml:"iterations"`
	Converged         bool       `json:"converged" yaml:"converged"`
	Notes             []string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Stacks            []Stack    `json:"stacks" yaml:"stacks"`
}

// FromResult converts a balancing result. A nil result yields the zero value.
func FromResult(r *balancer.Result) Result {
	if r == nil {
		return Result{}
	}

	out := Result{
		Target:            r.Target,
		Count:             r.Count,
		Efficiency:        ratutil.Float(r.Efficiency),
		EfficiencyDisplay: format.Percent(r.Efficiency),
		Used:              ratutil.Float(r.Used),
		Wasted:            ratutil.Float(r.Wasted),
		Iterations:        r.Iterations,
		Converged:         r.Converged,
		Stacks:            make([]Stack, 0, len(r.Stacks)),
	}
	if r.Demand != nil {
		out.Demand = fromSlot(r.Demand)
	}
	if !r.Converged {
		out.Notes = append(out.Notes, fmt.Sprintf("did not converge after %d iterations; figures are unreliable", r.Iterations))
	}

	for _, s := range r.Stacks {
		stack := Stack{
			Recipe:  s.Name,
			Raw:     s.Raw(),
			Count:   s.Count,
			Time:    ratutil.Float(s.Time),
			Inputs:  make([]Throughput, 0, len(s.From)),
			Outputs: make([]Throughput, 0, len(s.To)),
		}
		for _, in := range s.From {
			stack.Inputs = append(stack.Inputs, fromSlot(in))
		}
		for _, o := range s.To {
			stack.Outputs = append(stack.Outputs, fromSlot(o))
		}
		out.Stacks = append(out.Stacks, stack)
	}
	return out
}

// FromResults converts results, keeping their order.
func FromResults(results []*balancer.Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, FromResult(r))
	}
	return out
}

// Best returns the first result, which is the most efficient one for
// results sorted by balancer.SortResults.
func Best(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	return results[0], true
}

func fromSlot(slot *balancer.ItemRequirement) Throughput {
	return Throughput{
		Item:     slot.Item.Item,
		Amount:   ratutil.Float(slot.Item.Count),
		UsedTP:   ratutil.Float(ratutil.RoundReport(slot.UsedTP)),
		UnusedTP: ratutil.Float(ratutil.RoundReport(slot.UnusedTP)),
	}
}

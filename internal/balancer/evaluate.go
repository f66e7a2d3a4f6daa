package balancer

import (
	"math/big"

	"github.com/iwvelando/craft-balancer/pkg/constants"
	"github.com/iwvelando/craft-balancer/pkg/ratutil"
)

// finalize computes efficiency over the arena and rounds every slot for
// reporting. Stacks without inputs have their surplus zeroed and report
// their realized consumption rate as Count.
func (st *state) finalize() *Result {
	used := ratutil.Zero()
	wasted := ratutil.Zero()

	for _, s := range st.stacks {
		if len(s.From) == 0 {
			consumed := ratutil.Zero()
			for _, out := range s.To {
				out.UnusedTP.SetInt64(0)
				consumed.Add(consumed, out.UsedTP)
			}
			s.Count = int(ratutil.RoundInt(consumed))
		} else {
			for _, out := range s.To {
				wasted.Add(wasted, out.UnusedTP)
			}
		}
		for _, in := range s.From {
			used.Add(used, in.UsedTP)
		}
	}

	res := &Result{
		Target:     st.target,
		Count:      st.count,
		Efficiency: Efficiency(used, wasted),
		Used:       ratutil.RoundReport(used),
		Wasted:     ratutil.RoundReport(wasted),
		Demand:     st.stacks[0].From[0],
		Stacks:     st.stacks[1:],
		Iterations: st.iterations,
		Converged:  st.converged,
	}

	for _, s := range st.stacks {
		roundSlots(s.From)
		roundSlots(s.To)
	}
	return res
}

// Efficiency is used/(used+wasted) as a percentage rounded to the reporting
// precision. Nothing produced counts as fully efficient. Any waste at all
// keeps the figure below 100, one reporting step short at most.
func Efficiency(used, wasted *big.Rat) *big.Rat {
	hundred := ratutil.Int(constants.PercentageMultiplier)
	total := new(big.Rat).Add(used, wasted)
	if ratutil.IsZero(total) {
		return hundred
	}
	eff := ratutil.RoundReport(ratutil.Percentage(used, total))
	if ratutil.IsPositive(wasted) && eff.Cmp(hundred) >= 0 {
		return eff.Sub(hundred, reportStep())
	}
	return eff
}

// reportStep is the smallest difference the reporting precision can show.
func reportStep() *big.Rat {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(constants.DecimalPlaces), nil)
	return new(big.Rat).SetFrac(big.NewInt(1), denom)
}

func roundSlots(slots []*ItemRequirement) {
	for _, slot := range slots {
		slot.UsedTP = ratutil.RoundReport(slot.UsedTP)
		slot.UnusedTP = ratutil.RoundReport(slot.UnusedTP)
	}
}

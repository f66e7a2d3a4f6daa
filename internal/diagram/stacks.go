package diagram

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/craft-balancer/pkg/report"
)

// FromResult charts a balanced plan. Every stack becomes a node, raw
// supplies drawn as stadiums, and every consumed input becomes an edge from
// the first stack producing it, labeled with the settled throughput. The
// root demand is a circle fed by the target's producer.
func FromResult(res report.Result) Flowchart {
	chart := Flowchart{Direction: BottomToTop}

	producers := make(map[string]string)
	for i, s := range res.Stacks {
		id := "s" + strconv.Itoa(i)
		node := Node{ID: id}
		if s.Raw {
			node.Label = fmt.Sprintf("%s %s/s", s.Recipe, formatFloat(outputUsed(s)))
			node.Shape = ShapeStadium
		} else {
			node.Label = fmt.Sprintf("%s x%d", s.Recipe, s.Count)
		}
		chart.Nodes = append(chart.Nodes, node)

		for _, out := range s.Outputs {
			if _, seen := producers[out.Item]; !seen {
				producers[out.Item] = id
			}
		}
	}

	for i, s := range res.Stacks {
		for _, in := range s.Inputs {
			from, ok := producers[in.Item]
			if !ok || in.UsedTP == 0 {
				continue
			}
			chart.Edges = append(chart.Edges, Edge{
				From:  from,
				To:    "s" + strconv.Itoa(i),
				Label: fmt.Sprintf("%s %s/s", in.Item, formatFloat(in.UsedTP)),
			})
		}
	}

	if res.Target != "" {
		chart.Nodes = append(chart.Nodes, Node{
			ID:    "demand",
			Label: fmt.Sprintf("%s %s/s", res.Target, formatFloat(res.Demand.UsedTP)),
			Shape: ShapeCircle,
		})
		if from, ok := producers[res.Target]; ok {
			chart.Edges = append(chart.Edges, Edge{
				From:  from,
				To:    "demand",
				Label: fmt.Sprintf("%s%% efficient", formatFloat(res.Efficiency)),
				Line:  LineThick,
			})
		}
	}

	return chart
}

func outputUsed(s report.Stack) float64 {
	var total float64
	for _, out := range s.Outputs {
		total += out.UsedTP
	}
	return total
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

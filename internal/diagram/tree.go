package diagram

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/pkg/ratutil"
)

// ResolveItemTree charts every recipe needed to make item, bottom to top.
// Each output of a transform becomes a node labeled "item xN", linked to the
// node that consumes it with an edge labeled by the transform time.
// Inputs listed in excluded, and inputs nothing produces, are leaves. A
// recipe already on the current path is not expanded again.
func ResolveItemTree(table *recipe.Table, item string, excluded []string) Flowchart {
	chart := Flowchart{Direction: BottomToTop}

	tf, ok := table.TransformByProduct(item)
	if !ok {
		return chart
	}

	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}

	w := &treeWalker{table: table, skip: skip, chart: &chart, onPath: make(map[string]bool)}
	w.walk(tf, "")
	return chart
}

type treeWalker struct {
	table  *recipe.Table
	skip   map[string]bool
	chart  *Flowchart
	onPath map[string]bool
	nextID int
}

func (w *treeWalker) walk(tf recipe.Transform, parent string) {
	w.onPath[tf.Name] = true
	defer delete(w.onPath, tf.Name)

	for _, out := range tf.To {
		w.nextID++
		id := "n" + strconv.Itoa(w.nextID)
		w.chart.Nodes = append(w.chart.Nodes, Node{
			ID:    id,
			Label: fmt.Sprintf("%s x%s", out.Item, formatNumber(out.Count)),
		})
		if parent != "" {
			w.chart.Edges = append(w.chart.Edges, Edge{
				From:  id,
				To:    parent,
				Label: formatNumber(tf.Time) + "s",
			})
		}

		for _, in := range tf.From {
			if w.skip[in.Item] {
				continue
			}
			sub, ok := w.table.TransformByProduct(in.Item)
			if !ok || w.onPath[sub.Name] {
				continue
			}
			w.walk(sub, id)
		}
	}
}

func formatNumber(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return strconv.FormatFloat(ratutil.Float(r), 'f', -1, 64)
}

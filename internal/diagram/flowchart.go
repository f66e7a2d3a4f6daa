// Package diagram builds and renders Mermaid flowcharts of production chains.
package diagram

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Direction is the layout direction of a flowchart.
type Direction string

const (
	TopToBottom Direction = "TB"
	BottomToTop Direction = "BT"
	LeftToRight Direction = "LR"
	RightToLeft Direction = "RL"
)

// Shape is a node shape. The empty shape renders as ShapeSquare.
type Shape string

const (
	ShapeSquare        Shape = "square"
	ShapeRounded       Shape = "rounded"
	ShapeStadium       Shape = "round"
	ShapeSubroutine    Shape = "doubleBox"
	ShapeCylinder      Shape = "cylinder"
	ShapeCircle        Shape = "circle"
	ShapeAsymmetric    Shape = "asymmetric"
	ShapeRhombus       Shape = "rhombus"
	ShapeHexagon       Shape = "hexagon"
	ShapeParallelogram Shape = "parallelogram"
	ShapeTrapezoid     Shape = "trapezoid"
	ShapeTrapezoidAlt  Shape = "trapezoidAlt"
	ShapeDoubleCircle  Shape = "doubleCircle"
)

var shapeTemplates = map[Shape][2]string{
	ShapeSquare:        {"[", "]"},
	ShapeRounded:       {"(", ")"},
	ShapeStadium:       {"([", "])"},
	ShapeSubroutine:    {"[[", "]]"},
	ShapeCylinder:      {"[(", ")]"},
	ShapeCircle:        {"((", "))"},
	ShapeAsymmetric:    {">", "]"},
	ShapeRhombus:       {"{", "}"},
	ShapeHexagon:       {"{{", "}}"},
	ShapeParallelogram: {"[/", "/]"},
	ShapeTrapezoid:     {"[\\", "/]"},
	ShapeTrapezoidAlt:  {"[/", "\\]"},
	ShapeDoubleCircle:  {"(((", ")))"},
}

// Line is an edge line style. The empty line renders as LineSolid.
type Line string

const (
	LineSolid     Line = "solid"
	LineThick     Line = "thick"
	LineInvisible Line = "invisible"
	LineDotted    Line = "dotted"
)

var lineChars = map[Line]struct{ char, pad string }{
	LineSolid:     {"-", "-"},
	LineThick:     {"=", "="},
	LineInvisible: {"~", "~"},
	LineDotted:    {"-", "."},
}

// Arrow is an edge end marker.
type Arrow string

const (
	ArrowHead   Arrow = "arrow"
	ArrowNone   Arrow = "none"
	ArrowCross  Arrow = "cross"
	ArrowCircle Arrow = "circle"
)

var arrowChars = map[Arrow]struct{ from, to string }{
	ArrowHead:   {"<", ">"},
	ArrowNone:   {"", ""},
	ArrowCross:  {"x", "x"},
	ArrowCircle: {"o", "o"},
}

// Node is a flowchart vertex. Labels are rendered as markdown strings unless
// PlainText is set. An empty ID gets a random one at render time.
type Node struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	PlainText bool   `json:"plainText,omitempty"`
	Shape     Shape  `json:"shape,omitempty"`
	Subgraph  string `json:"subgraph,omitempty"`
	Style     string `json:"style,omitempty"`
}

// Edge connects two node IDs. FromArrow defaults to ArrowNone and ToArrow
// to ArrowHead; Length defaults to 1.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Label     string `json:"label,omitempty"`
	PlainText bool   `json:"plainText,omitempty"`
	Length    int    `json:"length,omitempty"`
	Line      Line   `json:"line,omitempty"`
	FromArrow Arrow  `json:"fromArrow,omitempty"`
	ToArrow   Arrow  `json:"toArrow,omitempty"`
}

// Subgraph groups nodes. Inside nests it in another subgraph.
type Subgraph struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	PlainText bool      `json:"plainText,omitempty"`
	Inside    string    `json:"inside,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Flowchart is a Mermaid flowchart definition.
type Flowchart struct {
	Direction Direction  `json:"direction"`
	Nodes     []Node     `json:"nodes"`
	Edges     []Edge     `json:"edges"`
	Subgraphs []Subgraph `json:"subgraphs,omitempty"`
}

var escaper = strings.NewReplacer(
	"#", "&num;",
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
	"`", "&grave;",
)

// Escape replaces characters that break Mermaid label strings with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

func quote(label string, plain bool) string {
	if plain {
		return `"` + Escape(label) + `"`
	}
	return "\"`" + Escape(label) + "`\""
}

// Render produces Mermaid flowchart syntax.
func Render(f Flowchart) (string, error) {
	dir := f.Direction
	if dir == "" {
		dir = TopToBottom
	}
	if !validDirection(dir) {
		return "", fmt.Errorf("invalid flowchart direction %q", dir)
	}

	subgraphs := make(map[string]Subgraph, len(f.Subgraphs))
	var b strings.Builder
	b.WriteString("flowchart " + string(dir) + "\n")

	for _, sg := range f.Subgraphs {
		if sg.ID == "" {
			sg.ID = uuid.NewString()
		}
		subgraphs[sg.ID] = sg
		b.WriteString("subgraph " + sg.ID)
		if sg.Label != "" {
			b.WriteString(" [" + quote(sg.Label, sg.PlainText) + "]")
		}
		b.WriteString("\n")
		if sg.Direction != "" {
			if !validDirection(sg.Direction) {
				return "", fmt.Errorf("invalid direction %q for subgraph %s", sg.Direction, sg.ID)
			}
			b.WriteString("direction " + string(sg.Direction) + "\n")
		}
		b.WriteString("end\n")
	}

	for _, n := range f.Nodes {
		if n.ID == "" {
			n.ID = "id" + uuid.NewString()
		}
		shape := n.Shape
		if shape == "" {
			shape = ShapeSquare
		}
		tmpl, ok := shapeTemplates[shape]
		if !ok {
			return "", fmt.Errorf("invalid shape %q for node %s", n.Shape, n.ID)
		}

		// Open enclosing subgraphs outermost first.
		var chain []string
		seen := make(map[string]bool)
		for inside := n.Subgraph; inside != "" && !seen[inside]; inside = subgraphs[inside].Inside {
			seen[inside] = true
			chain = append(chain, inside)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			b.WriteString("subgraph " + chain[i] + "\n")
		}

		b.WriteString(n.ID)
		if n.Label != "" {
			b.WriteString(tmpl[0] + quote(n.Label, n.PlainText) + tmpl[1])
		}
		b.WriteString("\n")
		if n.Style != "" {
			b.WriteString("style " + n.ID + " " + n.Style + "\n")
		}
		for range chain {
			b.WriteString("end\n")
		}
	}

	for _, e := range f.Edges {
		link, err := renderLink(&e)
		if err != nil {
			return "", err
		}
		b.WriteString(e.From + " " + link + " ")
		if e.Label != "" {
			b.WriteString("|" + quote(e.Label, e.PlainText) + "| ")
		}
		b.WriteString(e.To + "\n")
	}

	return b.String(), nil
}

// renderLink builds the arrow between two nodes. A marker only on the
// source side is moved to the target side with the endpoints swapped,
// since Mermaid does not accept a lone leading marker.
func renderLink(e *Edge) (string, error) {
	line := e.Line
	if line == "" {
		line = LineSolid
	}
	chars, ok := lineChars[line]
	if !ok {
		return "", fmt.Errorf("invalid line style %q on edge %s -> %s", e.Line, e.From, e.To)
	}

	fromArrow, toArrow := e.FromArrow, e.ToArrow
	if fromArrow == "" {
		fromArrow = ArrowNone
	}
	if toArrow == "" {
		toArrow = ArrowHead
	}
	if line == LineInvisible {
		fromArrow, toArrow = ArrowNone, ArrowNone
	}
	if _, ok := arrowChars[fromArrow]; !ok {
		return "", fmt.Errorf("invalid arrow %q on edge %s -> %s", fromArrow, e.From, e.To)
	}
	if _, ok := arrowChars[toArrow]; !ok {
		return "", fmt.Errorf("invalid arrow %q on edge %s -> %s", toArrow, e.From, e.To)
	}
	if fromArrow != ArrowNone && toArrow == ArrowNone {
		fromArrow, toArrow = ArrowNone, fromArrow
		e.From, e.To = e.To, e.From
	}

	length := e.Length
	if length <= 0 {
		length = 1
	}
	arrLen := 2 + length
	if toArrow != ArrowNone && line != LineDotted {
		arrLen--
	}

	return arrowChars[fromArrow].from + chars.char + strings.Repeat(chars.pad, arrLen-2) +
		chars.char + arrowChars[toArrow].to, nil
}

func validDirection(d Direction) bool {
	switch d {
	case TopToBottom, BottomToTop, LeftToRight, RightToLeft:
		return true
	}
	return false
}

package analytics

const (
	SolverForceAtlas2 = "forceAtlas2Based"
	SolverBarnesHut   = "barnesHut"

	mediumGraphNodes = 100
	largeGraphNodes  = 200
	denseEdgeRatio   = 5.0
)

// SolverParams holds the force parameters of one physics solver.
type SolverParams struct {
	GravitationalConstant float64 `json:"gravitationalConstant"`
	CentralGravity        float64 `json:"centralGravity"`
	SpringLength          float64 `json:"springLength"`
	SpringConstant        float64 `json:"springConstant"`
	Damping               float64 `json:"damping,omitempty"`
}

type Stabilization struct {
	Enabled    bool `json:"enabled"`
	Iterations int  `json:"iterations"`
}

// Physics is the force-directed layout configuration handed to the
// renderer. BarnesHut is only set when it is the selected solver.
type Physics struct {
	Enabled          bool          `json:"enabled"`
	Solver           string        `json:"solver"`
	ForceAtlas2Based SolverParams  `json:"forceAtlas2Based"`
	BarnesHut        *SolverParams `json:"barnesHut,omitempty"`
	Stabilization    Stabilization `json:"stabilization"`
}

// Active returns the parameters of the selected solver.
func (p Physics) Active() SolverParams {
	if p.Solver == SolverBarnesHut && p.BarnesHut != nil {
		return *p.BarnesHut
	}
	return p.ForceAtlas2Based
}

// SelectPhysics picks layout parameters by graph size. Graphs above 100
// nodes get a wider force atlas, graphs above 200 switch to Barnes-Hut, and
// graphs with more than 5 edges per node stretch the springs by half.
func SelectPhysics(nodes, edges int) Physics {
	p := Physics{
		Enabled: true,
		Solver:  SolverForceAtlas2,
		ForceAtlas2Based: SolverParams{
			GravitationalConstant: -50,
			CentralGravity:        0.01,
			SpringLength:          100,
			SpringConstant:        0.08,
		},
		Stabilization: Stabilization{Enabled: true, Iterations: 200},
	}

	if nodes > mediumGraphNodes {
		p.ForceAtlas2Based = SolverParams{
			GravitationalConstant: -80,
			CentralGravity:        0.02,
			SpringLength:          150,
			SpringConstant:        0.05,
		}
		p.Stabilization.Iterations = 300
	}

	if nodes > largeGraphNodes {
		p.Solver = SolverBarnesHut
		p.BarnesHut = &SolverParams{
			GravitationalConstant: -8000,
			CentralGravity:        0.3,
			SpringLength:          250,
			SpringConstant:        0.04,
			Damping:               0.09,
		}
		p.Stabilization.Iterations = 500
	}

	if float64(edges)/float64(max(nodes, 1)) > denseEdgeRatio {
		if p.Solver == SolverBarnesHut {
			p.BarnesHut.SpringLength *= 1.5
		} else {
			p.ForceAtlas2Based.SpringLength *= 1.5
		}
	}

	return p
}

// VisOptions is the full option set of the network renderer.
type VisOptions struct {
	Physics     Physics        `json:"physics"`
	Edges       map[string]any `json:"edges"`
	Nodes       map[string]any `json:"nodes"`
	Interaction map[string]any `json:"interaction"`
	Layout      map[string]any `json:"layout"`
}

// NewVisOptions wraps physics with the fixed edge, node, interaction and
// layout settings.
func NewVisOptions(physics Physics) VisOptions {
	return VisOptions{
		Physics: physics,
		Edges: map[string]any{
			"color":          map[string]any{"inherit": true},
			"font":           map[string]any{"size": 11},
			"smooth":         false,
			"width":          1.5,
			"selectionWidth": 2,
		},
		Nodes: map[string]any{
			"font":                map[string]any{"size": 14, "face": "Tahoma"},
			"scaling":             map[string]any{"min": 10, "max": 50},
			"shape":               "dot",
			"margin":              10,
			"borderWidth":         2,
			"borderWidthSelected": 3,
		},
		Interaction: map[string]any{
			"hover":             true,
			"navigationButtons": true,
			"keyboard":          true,
			"tooltipDelay":      200,
			"zoomView":          true,
			"dragView":          true,
		},
		Layout: map[string]any{
			"improvedLayout": true,
			"hierarchical": map[string]any{
				"enabled":    false,
				"sortMethod": "directed",
			},
		},
	}
}

package analytics

const (
	degreeWeight      = 0.5
	betweennessWeight = 0.3
	eigenvectorWeight = 0.2

	MinNodeSize = 10.0
	MaxNodeSize = 30.0
)

// Importance combines the three centralities of every node, each normalized
// by its maximum over all nodes. A zero maximum contributes nothing.
func Importance(degree map[string]int, betweenness, eigenvector map[string]float64) map[string]float64 {
	maxDeg := 0
	for _, d := range degree {
		maxDeg = max(maxDeg, d)
	}
	maxBtw := maxOf(betweenness)
	maxEig := maxOf(eigenvector)

	out := make(map[string]float64, len(degree))
	for name, d := range degree {
		score := 0.0
		if maxDeg > 0 {
			score += degreeWeight * float64(d) / float64(maxDeg)
		}
		if maxBtw > 0 {
			score += betweennessWeight * betweenness[name] / maxBtw
		}
		if maxEig > 0 {
			score += eigenvectorWeight * eigenvector[name] / maxEig
		}
		out[name] = score
	}
	return out
}

// NodeSize maps an importance in [0, 1] to a render size in [10, 30].
func NodeSize(importance float64) float64 {
	size := MinNodeSize + (MaxNodeSize-MinNodeSize)*importance
	return min(max(size, MinNodeSize), MaxNodeSize)
}

func maxOf(m map[string]float64) float64 {
	out := 0.0
	for _, v := range m {
		out = max(out, v)
	}
	return out
}

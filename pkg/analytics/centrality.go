package analytics

import (
	"math"

	"gonum.org/v1/gonum/graph/network"
)

const (
	eigenvectorMaxIter  = 1000
	eigenvectorFallback = 0.5
)

// DegreeCentrality returns the neighbor count of every node.
func DegreeCentrality(g *Graph) map[string]int {
	out := make(map[string]int, g.NodeCount())
	for _, name := range g.names {
		out[name] = g.Degree(name)
	}
	return out
}

// BetweennessCentrality returns the shortest-path betweenness of every node
// using Brandes' algorithm. Nodes on no shortest path get 0.
func BetweennessCentrality(g *Graph) map[string]float64 {
	out := make(map[string]float64, g.NodeCount())
	for _, name := range g.names {
		out[name] = 0
	}
	if g.EdgeCount() == 0 {
		return out
	}
	for id, v := range network.Betweenness(g.g) {
		out[g.names[id]] = v
	}
	return out
}

// EigenvectorCentrality runs power iteration on the adjacency matrix and
// returns the L2 normalized principal eigenvector.
//
// The result is only well defined on a connected graph without isolated
// nodes. When the graph has no edges, any isolated node, or the iteration
// does not converge, every node gets 0.5.
func EigenvectorCentrality(g *Graph) map[string]float64 {
	n := g.NodeCount()
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}

	degenerate := func() map[string]float64 {
		for _, name := range g.names {
			out[name] = eigenvectorFallback
		}
		return out
	}

	if g.EdgeCount() == 0 {
		return degenerate()
	}
	adj := make([][]int, n)
	for i, name := range g.names {
		for _, nb := range g.Neighbors(name) {
			adj[i] = append(adj[i], int(g.ids[nb]))
		}
		if len(adj[i]) == 0 {
			return degenerate()
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	tol := float64(n) * 1e-6

	for iter := 0; iter < eigenvectorMaxIter; iter++ {
		next := make([]float64, n)
		copy(next, x)
		for i, nbs := range adj {
			for _, j := range nbs {
				next[i] += x[j]
			}
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return degenerate()
		}
		for i := range next {
			next[i] /= norm
		}

		diff := 0.0
		for i := range next {
			diff += math.Abs(next[i] - x[i])
		}
		x = next
		if diff < tol {
			for i, name := range g.names {
				out[name] = x[i]
			}
			return out
		}
	}

	return degenerate()
}

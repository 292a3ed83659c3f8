package harness

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports guards whose redirects lead back to a guarded path.
//
// Cycles are warnings, not errors: the bridge stops them at the maximum
// sync depth, and a scenario may exist precisely to exercise that limit.
type CycleWarning struct {
	Path    []string `json:"path"` // e.g. ["/a", "/b", "/a"]
	Message string   `json:"message"`
}

// AnalyzeRedirects finds redirect cycles among the scenario's guards.
//
// Each redirecting guard is an edge from its path to its target. Strongly
// connected components with more than one path, or a path redirecting to
// itself, are reported. Warnings are ordered by their first path.
func AnalyzeRedirects(guards []Guard) []CycleWarning {
	graph := buildRedirectGraph(guards)
	if len(graph) == 0 {
		return nil
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// redirectGraph maps a guarded path to the paths its guards redirect to.
type redirectGraph map[string][]string

func buildRedirectGraph(guards []Guard) redirectGraph {
	graph := make(redirectGraph)
	for _, g := range guards {
		if g.Redirect == "" {
			continue
		}
		if !slices.Contains(graph[g.Path], g.Redirect) {
			graph[g.Path] = append(graph[g.Path], g.Redirect)
		}
	}
	return graph
}

func hasSelfLoop(node string, graph redirectGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC returns the strongly connected components of graph. Nodes are
// visited in sorted order so results are stable across runs.
func tarjanSCC(graph redirectGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph redirectGraph) CycleWarning {
	if len(scc) == 1 {
		p := scc[0]
		return CycleWarning{
			Path:    []string{p, p},
			Message: fmt.Sprintf("guard on %s redirects to itself", p),
		}
	}
	path := cyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("redirect cycle: %s", strings.Join(path, " -> ")),
	}
}

// cyclePath walks redirects within the component from its smallest path
// until it returns to the start.
func cyclePath(scc []string, graph redirectGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true
		var next string
		for _, n := range graph[current] {
			if members[n] && (!visited[n] || n == start) {
				next = n
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

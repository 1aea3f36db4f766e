// Package domain contains the core domain models and business logic for the
// package dependency graph.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Direction selects which side of an edge a neighbor query follows.
type Direction int

const (
	// Outgoing follows edges from a package to the dependencies it declares.
	Outgoing Direction = iota
	// Incoming follows edges from a package to the packages declaring it.
	Incoming
)

// Edge is a single dependency relation between two packages.
type Edge struct {
	From InternedString
	To   InternedString
	// Dev marks relations declared under dev-dependencies. They are only
	// present in the graph when the build mode made them live.
	Dev bool
}

// PackageGraph is the dependency graph of a resolved build. Nodes are package
// names, edges are declared dependency relations. Both directions are stored
// so callers can walk dependencies as well as dependents.
type PackageGraph struct {
	index map[InternedString]int
	nodes []InternedString
	out   [][]halfEdge
	in    [][]halfEdge

	topoOrder []InternedString
}

type halfEdge struct {
	node int
	dev  bool
}

// NewPackageGraph creates a new empty PackageGraph.
func NewPackageGraph() *PackageGraph {
	return &PackageGraph{
		index: make(map[InternedString]int),
	}
}

// AddNode adds a package node to the graph.
// It returns an error if a node with the same name already exists.
func (g *PackageGraph) AddNode(name InternedString) error {
	if _, exists := g.index[name]; exists {
		return zerr.With(ErrPackageExists, "package", name.String())
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return nil
}

// Contains reports whether a package node is present in the graph.
func (g *PackageGraph) Contains(name InternedString) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of package nodes.
func (g *PackageGraph) Len() int {
	return len(g.nodes)
}

// AddEdge records a dependency relation between two existing nodes. Identical
// relations collapse into a single edge.
func (g *PackageGraph) AddEdge(from, to InternedString, dev bool) error {
	fi, ok := g.index[from]
	if !ok {
		return zerr.With(ErrPackageNotFound, "package", from.String())
	}
	ti, ok := g.index[to]
	if !ok {
		return zerr.With(ErrMissingDependency, "dependency", to.String())
	}
	for _, e := range g.out[fi] {
		if e.node == ti && e.dev == dev {
			return nil
		}
	}
	g.out[fi] = append(g.out[fi], halfEdge{node: ti, dev: dev})
	g.in[ti] = append(g.in[ti], halfEdge{node: fi, dev: dev})
	return nil
}

// Nodes returns all package names sorted lexicographically.
func (g *PackageGraph) Nodes() []InternedString {
	names := slices.Clone(g.nodes)
	sortNames(names)
	return names
}

// Neighbors returns the unique neighbor names of a package in the given
// direction, sorted lexicographically. An unknown package yields nil.
func (g *PackageGraph) Neighbors(name InternedString, dir Direction) []InternedString {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	half := g.out[i]
	if dir == Incoming {
		half = g.in[i]
	}
	seen := make(map[int]struct{}, len(half))
	names := make([]InternedString, 0, len(half))
	for _, e := range half {
		if _, dup := seen[e.node]; dup {
			continue
		}
		seen[e.node] = struct{}{}
		names = append(names, g.nodes[e.node])
	}
	sortNames(names)
	return names
}

// Edges returns every edge sorted by source, target and dev flag.
func (g *PackageGraph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.nodes))
	for fi, half := range g.out {
		for _, e := range half {
			edges = append(edges, Edge{
				From: g.nodes[fi],
				To:   g.nodes[e.node],
				Dev:  e.dev,
			})
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := strings.Compare(a.From.String(), b.From.String()); c != 0 {
			return c
		}
		if c := strings.Compare(a.To.String(), b.To.String()); c != 0 {
			return c
		}
		switch {
		case a.Dev == b.Dev:
			return 0
		case b.Dev:
			return -1
		default:
			return 1
		}
	})
	return edges
}

// Validate checks for cycles in the graph using a topological sort.
// It populates the topological order if successful. Both visit roots and
// neighbor lists are walked in sorted order, so the resulting order is
// deterministic for a given edge set.
func (g *PackageGraph) Validate() error {
	g.topoOrder = make([]InternedString, 0, len(g.nodes))
	visited := make(map[InternedString]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.Neighbors(u, Outgoing) {
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.topoOrder = append(g.topoOrder, u)
		return nil
	}

	for _, name := range g.Nodes() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields package names with dependencies before
// dependents. It assumes Validate() has been called and returned nil.
func (g *PackageGraph) Walk() iter.Seq[InternedString] {
	return func(yield func(InternedString) bool) {
		for _, name := range g.topoOrder {
			if !yield(name) {
				return
			}
		}
	}
}

// Reachable computes the set of packages reachable from root. Non-dev edges
// are always followed; dev edges only when devMode holds and the edge leaves
// the root itself.
func (g *PackageGraph) Reachable(root InternedString, devMode bool) map[InternedString]struct{} {
	set := make(map[InternedString]struct{})
	ri, ok := g.index[root]
	if !ok {
		return set
	}
	set[root] = struct{}{}
	queue := []int{ri}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if e.dev && !(devMode && cur == ri) {
				continue
			}
			name := g.nodes[e.node]
			if _, seen := set[name]; seen {
				continue
			}
			set[name] = struct{}{}
			queue = append(queue, e.node)
		}
	}
	return set
}

func sortNames(names []InternedString) {
	slices.SortFunc(names, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
}

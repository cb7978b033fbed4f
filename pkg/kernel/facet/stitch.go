package facet

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/globoid/pkg/kernel"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shell is a closed, consistently oriented triangle shell produced by Stitch.
type Shell struct {
	k        *Kernel
	vertices []r3.Vec
	faces    [][3]int
	edges    int
}

var _ kernel.Shell = (*Shell)(nil)

// BoundingBox returns the axis-aligned bounding box.
func (s *Shell) BoundingBox() (min, max r3.Vec) {
	return boundingBox(s.Triangles())
}

// Closed reports whether the shell is a closed 2-manifold. Stitch only
// returns shells that are.
func (s *Shell) Closed() bool {
	return len(s.faces) > 0 && 2*s.edges == 3*len(s.faces)
}

// Triangles returns the faces with outward winding.
func (s *Shell) Triangles() [][3]r3.Vec {
	tris := make([][3]r3.Vec, len(s.faces))
	for i, f := range s.faces {
		tris[i] = [3]r3.Vec{s.vertices[f[0]], s.vertices[f[1]], s.vertices[f[2]]}
	}
	return tris
}

// VertexCount returns the number of welded vertices.
func (s *Shell) VertexCount() int { return len(s.vertices) }

// FaceCount returns the number of triangles.
func (s *Shell) FaceCount() int { return len(s.faces) }

// EulerCharacteristic returns V - E + F; 2 for a shell without handles.
func (s *Shell) EulerCharacteristic() int {
	return len(s.vertices) - s.edges + len(s.faces)
}

// Volume returns the enclosed volume.
func (s *Shell) Volume() float64 {
	return signedVolume(s.vertices, s.faces)
}

// Area returns the total surface area.
func (s *Shell) Area() float64 {
	var a float64
	for _, t := range s.Triangles() {
		a += triangleArea(t)
	}
	return a
}

func signedVolume(vertices []r3.Vec, faces [][3]int) float64 {
	var v float64
	for _, f := range faces {
		v += r3.Dot(vertices[f[0]], r3.Cross(vertices[f[1]], vertices[f[2]]))
	}
	return v / 6
}

// ---------------------------------------------------------------------------
// Vertex welding
// ---------------------------------------------------------------------------

// weldPoint is a welded vertex stored in the kd-tree.
type weldPoint struct {
	r3.Vec
	index int
}

func (p *weldPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*weldPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	}
	panic("facet: illegal dimension")
}

func (p *weldPoint) Dims() int { return 3 }

func (p *weldPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(*weldPoint)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// vertexSet is a point cloud indexed by a kd-tree.
type vertexSet struct {
	tree   kdtree.Tree
	points []r3.Vec
}

func (vs *vertexSet) add(v r3.Vec) int {
	i := len(vs.points)
	vs.points = append(vs.points, v)
	vs.tree.Insert(&weldPoint{Vec: v, index: i}, false)
	return i
}

// weld returns the index of a stored point within sqrt(d2) of v, adding v
// when there is none.
func (vs *vertexSet) weld(v r3.Vec, d2 float64) int {
	if vs.tree.Root != nil {
		if c, dist := vs.tree.Nearest(&weldPoint{Vec: v}); c != nil && dist <= d2 {
			return c.(*weldPoint).index
		}
	}
	return vs.add(v)
}

// near returns every stored point within sqrt(d2) of v.
func (vs *vertexSet) near(v r3.Vec, d2 float64) []kdtree.ComparableDist {
	if vs.tree.Root == nil {
		return nil
	}
	keep := kdtree.NewDistKeeper(d2)
	vs.tree.NearestSet(keep, &weldPoint{Vec: v})
	var out []kdtree.ComparableDist
	for _, c := range keep.Heap {
		if c.Comparable != nil {
			out = append(out, c)
		}
	}
	return out
}

// cluster is a group of welded vertices and the surfaces using them.
type cluster struct {
	parent   int
	surfaces map[int]bool
}

// welder merges surface vertices in two passes. Coincident points become one
// vertex whatever surface they come from. Then boundary vertices of
// different surfaces within the tolerance merge, closest pairs first; two
// vertices used by the same surface are never merged, so edges shorter than
// the tolerance inside a surface survive.
type welder struct {
	exact    vertexSet
	clusters []cluster
}

func (w *welder) index(v r3.Vec, surface int) int {
	i := w.exact.weld(v, coincidence*coincidence)
	if i == len(w.clusters) {
		w.clusters = append(w.clusters, cluster{parent: i, surfaces: map[int]bool{}})
	}
	w.clusters[i].surfaces[surface] = true
	return i
}

func (w *welder) root(i int) int {
	for w.clusters[i].parent != i {
		w.clusters[i].parent = w.clusters[w.clusters[i].parent].parent
		i = w.clusters[i].parent
	}
	return i
}

// union merges the clusters of a and b unless a surface uses both.
func (w *welder) union(a, b int) bool {
	ra, rb := w.root(a), w.root(b)
	if ra == rb {
		return false
	}
	for s := range w.clusters[rb].surfaces {
		if w.clusters[ra].surfaces[s] {
			return false
		}
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	w.clusters[rb].parent = ra
	for s := range w.clusters[rb].surfaces {
		w.clusters[ra].surfaces[s] = true
	}
	return true
}

// mergeBoundary welds the given vertices across surfaces within tolerance.
func (w *welder) mergeBoundary(boundary []int, tolerance float64) {
	var set vertexSet
	for _, i := range boundary {
		set.add(w.exact.points[i])
	}
	type pair struct {
		a, b int
		d2   float64
	}
	var pairs []pair
	for k, i := range boundary {
		for _, c := range set.near(w.exact.points[i], tolerance*tolerance) {
			if j := c.Comparable.(*weldPoint).index; j > k {
				pairs = append(pairs, pair{i, boundary[j], c.Dist})
			}
		}
	}
	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].d2 != pairs[y].d2 {
			return pairs[x].d2 < pairs[y].d2
		}
		if pairs[x].a != pairs[y].a {
			return pairs[x].a < pairs[y].a
		}
		return pairs[x].b < pairs[y].b
	})
	for _, p := range pairs {
		w.union(p.a, p.b)
	}
}

// compact maps every vertex to its cluster representative, numbered in
// order of first appearance.
func (w *welder) compact() (remap []int, points []r3.Vec) {
	remap = make([]int, len(w.clusters))
	ids := make(map[int]int)
	for i := range w.clusters {
		r := w.root(i)
		id, ok := ids[r]
		if !ok {
			id = len(points)
			ids[r] = id
			points = append(points, w.exact.points[r])
		}
		remap[i] = id
	}
	return remap, points
}

// boundaryVertices returns the vertices on edges that only one face of the
// same surface uses, in ascending order.
func boundaryVertices(faces [][3]int, owner []int) []int {
	type surfaceEdge struct {
		surface int
		key     edgeKey
	}
	uses := make(map[surfaceEdge]int)
	for fi, f := range faces {
		for j := 0; j < 3; j++ {
			key, _ := makeEdgeKey(f[j], f[(j+1)%3])
			uses[surfaceEdge{owner[fi], key}]++
		}
	}
	seen := make(map[int]bool)
	for e, n := range uses {
		if n == 1 {
			seen[e.key[0]], seen[e.key[1]] = true, true
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ---------------------------------------------------------------------------
// Stitch
// ---------------------------------------------------------------------------

// halfEdge is one use of an undirected edge by a face.
type halfEdge struct {
	face    int
	surface int
	forward bool // face traverses the edge from its lower to its higher vertex
}

type edgeKey [2]int

func makeEdgeKey(a, b int) (edgeKey, bool) {
	if a < b {
		return edgeKey{a, b}, true
	}
	return edgeKey{b, a}, false
}

// Stitch welds the surfaces into one shell. Coincident points always merge;
// boundary vertices of different surfaces merge when closer than tolerance.
// The result must be one connected, orientable, closed 2-manifold; surfaces
// are flipped as needed so all faces agree, and the whole shell is wound
// outward. Anything else fails with kernel.ErrStitchIncomplete.
func (k *Kernel) Stitch(surfaces []kernel.Surface, tolerance float64) (kernel.Shell, error) {
	if !(tolerance > 0) {
		return nil, fmt.Errorf("facet: stitch tolerance must be positive, got %g", tolerance)
	}
	if len(surfaces) == 0 {
		return nil, fmt.Errorf("facet: nothing to stitch: %w", kernel.ErrStitchIncomplete)
	}

	w := &welder{}
	var faces [][3]int
	var owner []int
	for si, s := range surfaces {
		fs, err := k.ownSurface(s)
		if err != nil {
			return nil, err
		}
		for _, t := range fs.tris {
			faces = append(faces, [3]int{w.index(t[0], si), w.index(t[1], si), w.index(t[2], si)})
			owner = append(owner, si)
		}
	}
	w.mergeBoundary(boundaryVertices(faces, owner), tolerance)
	remap, vertices := w.compact()
	for fi, f := range faces {
		f = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return nil, fmt.Errorf("facet: tolerance %g collapses a facet of surface %d: %w",
				tolerance, owner[fi], kernel.ErrStitchIncomplete)
		}
		faces[fi] = f
	}

	edges := make(map[edgeKey][]halfEdge)
	for fi, f := range faces {
		for j := 0; j < 3; j++ {
			key, fwd := makeEdgeKey(f[j], f[(j+1)%3])
			edges[key] = append(edges[key], halfEdge{face: fi, surface: owner[fi], forward: fwd})
		}
	}

	var open, nonManifold int
	for _, uses := range edges {
		switch {
		case len(uses) == 1:
			open++
		case len(uses) > 2:
			nonManifold++
		}
	}
	if open > 0 || nonManifold > 0 {
		return nil, fmt.Errorf("facet: %d open and %d non-manifold edges at tolerance %g: %w",
			open, nonManifold, tolerance, kernel.ErrStitchIncomplete)
	}

	flip, err := orientSurfaces(len(surfaces), edges)
	if err != nil {
		return nil, err
	}
	for fi := range faces {
		if flip[owner[fi]] {
			faces[fi][1], faces[fi][2] = faces[fi][2], faces[fi][1]
		}
	}
	if signedVolume(vertices, faces) < 0 {
		for fi := range faces {
			faces[fi][1], faces[fi][2] = faces[fi][2], faces[fi][1]
		}
	}

	sh := &Shell{k: k, vertices: vertices, faces: faces, edges: len(edges)}
	k.shells = append(k.shells, sh)
	return sh, nil
}

// orientSurfaces decides which surfaces to flip so that every shared edge is
// traversed in opposite directions by its two faces. It also verifies that
// the surfaces form a single connected piece.
func orientSurfaces(n int, edges map[edgeKey][]halfEdge) ([]bool, error) {
	type link struct {
		to     int
		differ bool // the two surfaces need opposite flip states
	}
	adj := make([][]link, n)
	for _, uses := range edges {
		a, b := uses[0], uses[1]
		if a.surface == b.surface {
			if a.forward == b.forward {
				return nil, fmt.Errorf("facet: surface %d is not consistently wound: %w", a.surface, kernel.ErrStitchIncomplete)
			}
			continue
		}
		differ := a.forward == b.forward
		adj[a.surface] = append(adj[a.surface], link{b.surface, differ})
		adj[b.surface] = append(adj[b.surface], link{a.surface, differ})
	}

	flip := make([]bool, n)
	seen := make([]bool, n)
	seen[0] = true
	queue := []int{0}
	reached := 1
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, l := range adj[s] {
			want := flip[s] != l.differ
			if seen[l.to] {
				if flip[l.to] != want {
					return nil, fmt.Errorf("facet: surfaces %d and %d cannot be oriented consistently: %w",
						s, l.to, kernel.ErrStitchIncomplete)
				}
				continue
			}
			seen[l.to] = true
			flip[l.to] = want
			reached++
			queue = append(queue, l.to)
		}
	}
	if reached != n {
		return nil, fmt.Errorf("facet: %d of %d surfaces are disconnected from the shell: %w",
			n-reached, n, kernel.ErrStitchIncomplete)
	}
	return flip, nil
}

// MinEdgeLength returns the shortest edge of the shell, useful to check that
// the stitch tolerance stayed below the facet size.
func (s *Shell) MinEdgeLength() float64 {
	min := math.Inf(1)
	for _, f := range s.faces {
		for j := 0; j < 3; j++ {
			d := r3.Norm(r3.Sub(s.vertices[f[j]], s.vertices[f[(j+1)%3]]))
			min = math.Min(min, d)
		}
	}
	return min
}

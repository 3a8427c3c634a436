package forest

import (
	"math/rand"
	"sort"
)

// Task selects the split criterion and leaf output of a tree
type Task int

const (
	// Regression trees split on variance and predict the leaf mean
	Regression Task = iota
	// Classification trees split on Gini impurity and predict class frequencies
	Classification
)

// Node is one node of a fitted tree. Leaves carry Value; internal nodes send
// samples with x[Feature] <= Threshold to Left and the rest to Right.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Samples   int
	Value     []float64
}

// Tree is a fitted CART tree stored as a flat node slice rooted at index 0
type Tree struct {
	Nodes []Node
}

// leaf returns the leaf reached by x
func (t *Tree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}

// Depth returns the depth of the deepest leaf; a single leaf has depth 0
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return d
		}
		l, r := walk(n.Left, d+1), walk(n.Right, d+1)
		if l > r {
			return l
		}
		return r
	}
	return walk(0, 0)
}

type treeBuilder struct {
	x           [][]float64
	y           []float64
	task        Task
	nClasses    int
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand

	nodes      []Node
	importance []float64
}

func newTreeBuilder(x [][]float64, y []float64, task Task, nClasses int, p Params, rng *rand.Rand) *treeBuilder {
	nFeatures := len(x[0])
	maxFeatures := p.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > nFeatures {
		maxFeatures = nFeatures
	}
	return &treeBuilder{
		x:           x,
		y:           y,
		task:        task,
		nClasses:    nClasses,
		maxDepth:    p.MaxDepth,
		minSplit:    p.MinSamplesSplit,
		maxFeatures: maxFeatures,
		rng:         rng,
		importance:  make([]float64, nFeatures),
	}
}

func (b *treeBuilder) fit(idx []int) *Tree {
	b.grow(idx, 0)
	return &Tree{Nodes: b.nodes}
}

// grow appends the subtree for idx and returns its node index
func (b *treeBuilder) grow(idx []int, depth int) int {
	stats := b.newStats()
	stats.reset(idx)
	impurity := stats.total()

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Samples: len(idx), Value: stats.value()})

	if depth >= b.maxDepth || len(idx) < b.minSplit || impurity <= 1e-12 {
		return id
	}

	s, ok := b.bestSplit(idx, impurity)
	if !ok {
		return id
	}

	left := make([]int, 0, s.nLeft)
	right := make([]int, 0, len(idx)-s.nLeft)
	for _, i := range idx {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[s.feature] += s.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	n := &b.nodes[id]
	n.Leaf = false
	n.Feature = s.feature
	n.Threshold = s.threshold
	n.Left = l
	n.Right = r
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	nLeft     int
}

// bestSplit scans a random subset of features for the split with the largest
// weighted impurity decrease. Candidate thresholds are midpoints between
// consecutive distinct values.
func (b *treeBuilder) bestSplit(idx []int, impurity float64) (split, bool) {
	n := float64(len(idx))
	best := split{gain: 1e-12}
	found := false

	features := b.rng.Perm(len(b.importance))[:b.maxFeatures]
	sorted := make([]int, len(idx))
	stats := b.newStats()

	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		stats.reset(sorted)
		for i := 1; i < len(sorted); i++ {
			stats.moveLeft(sorted[i-1])

			lo, hi := b.x[sorted[i-1]][f], b.x[sorted[i]][f]
			if lo == hi {
				continue
			}

			nl, nr := float64(i), n-float64(i)
			il, ir := stats.children()
			gain := n*impurity - nl*il - nr*ir
			if gain > best.gain {
				best = split{feature: f, threshold: (lo + hi) / 2, gain: gain, nLeft: i}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) newStats() nodeStats {
	if b.task == Classification {
		return &giniStats{y: b.y, left: make([]float64, b.nClasses), right: make([]float64, b.nClasses)}
	}
	return &varianceStats{y: b.y}
}

// nodeStats accumulates the impurity of a node and of a left/right partition
// swept from left to right.
type nodeStats interface {
	reset(idx []int)
	moveLeft(i int)
	total() float64
	children() (left, right float64)
	value() []float64
}

type varianceStats struct {
	y          []float64
	nl, nr     float64
	sumL, sumR float64
	sqL, sqR   float64
}

func (s *varianceStats) reset(idx []int) {
	s.nl, s.sumL, s.sqL = 0, 0, 0
	s.nr, s.sumR, s.sqR = 0, 0, 0
	for _, i := range idx {
		s.nr++
		s.sumR += s.y[i]
		s.sqR += s.y[i] * s.y[i]
	}
}

func (s *varianceStats) moveLeft(i int) {
	v := s.y[i]
	s.nl++
	s.sumL += v
	s.sqL += v * v
	s.nr--
	s.sumR -= v
	s.sqR -= v * v
}

func variance(n, sum, sq float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / n
	v := sq/n - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

func (s *varianceStats) total() float64 {
	return variance(s.nl+s.nr, s.sumL+s.sumR, s.sqL+s.sqR)
}

func (s *varianceStats) children() (float64, float64) {
	return variance(s.nl, s.sumL, s.sqL), variance(s.nr, s.sumR, s.sqR)
}

func (s *varianceStats) value() []float64 {
	n := s.nl + s.nr
	if n == 0 {
		return []float64{0}
	}
	return []float64{(s.sumL + s.sumR) / n}
}

type giniStats struct {
	y           []float64
	left, right []float64
	nl, nr      float64
}

func (s *giniStats) reset(idx []int) {
	for c := range s.left {
		s.left[c], s.right[c] = 0, 0
	}
	s.nl, s.nr = 0, 0
	for _, i := range idx {
		s.right[int(s.y[i])]++
		s.nr++
	}
}

func (s *giniStats) moveLeft(i int) {
	c := int(s.y[i])
	s.left[c]++
	s.right[c]--
	s.nl++
	s.nr--
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func (s *giniStats) total() float64 {
	all := make([]float64, len(s.left))
	for c := range all {
		all[c] = s.left[c] + s.right[c]
	}
	return gini(all, s.nl+s.nr)
}

func (s *giniStats) children() (float64, float64) {
	return gini(s.left, s.nl), gini(s.right, s.nr)
}

func (s *giniStats) value() []float64 {
	n := s.nl + s.nr
	probs := make([]float64, len(s.left))
	if n == 0 {
		return probs
	}
	for c := range probs {
		probs[c] = (s.left[c] + s.right[c]) / n
	}
	return probs
}

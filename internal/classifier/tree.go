package classifier

import (
	"math/rand"
	"sort"
)

// Node is one node of a fitted decision tree. Leaves carry the share of
// positive training samples that reached them.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Positive  float64
	Leaf      bool
}

// DecisionTree is a binary CART classifier grown with Gini impurity.
type DecisionTree struct {
	Nodes []Node
}

// treeGrower holds the state needed while growing one tree.
type treeGrower struct {
	rng             *rand.Rand
	x               []Vector
	y               []int
	minSamplesSplit int
	maxFeatures     int

	// scratch buffers reused across nodes
	pairs []valueLabel
	mark  map[int]struct{}
}

type valueLabel struct {
	value float64
	label int
}

type split struct {
	feature   int
	threshold float64
	score     float64
	found     bool
}

// growTree fits a tree on the given sample indices. Indices may repeat, which is
// how bootstrap samples weight rows.
func growTree(x []Vector, y []int, samples []int, minSamplesSplit, maxFeatures int, rng *rand.Rand) *DecisionTree {
	g := &treeGrower{
		rng:             rng,
		x:               x,
		y:               y,
		minSamplesSplit: minSamplesSplit,
		maxFeatures:     maxFeatures,
		mark:            make(map[int]struct{}),
	}

	type task struct {
		node       int
		start, end int
	}

	tree := &DecisionTree{Nodes: []Node{{}}}
	stack := []task{{node: 0, start: 0, end: len(samples)}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		part := samples[t.start:t.end]

		positives := 0
		for _, s := range part {
			positives += y[s]
		}
		n := len(part)
		tree.Nodes[t.node].Positive = float64(positives) / float64(n)

		if n < g.minSamplesSplit || positives == 0 || positives == n {
			tree.Nodes[t.node].Leaf = true
			continue
		}

		best := g.bestSplit(part, positives)
		if !best.found {
			tree.Nodes[t.node].Leaf = true
			continue
		}

		mid := partition(part, func(s int) bool { return x[s].Get(best.feature) <= best.threshold })

		left, right := len(tree.Nodes), len(tree.Nodes)+1
		tree.Nodes = append(tree.Nodes, Node{}, Node{})
		tree.Nodes[t.node].Feature = best.feature
		tree.Nodes[t.node].Threshold = best.threshold
		tree.Nodes[t.node].Left = left
		tree.Nodes[t.node].Right = right

		stack = append(stack,
			task{node: right, start: t.start + mid, end: t.end},
			task{node: left, start: t.start, end: t.start + mid})
	}

	return tree
}

// bestSplit draws candidate features in random order until maxFeatures
// non-constant ones have been evaluated. Features that are zero for every sample
// in the node are constant and never drawn.
func (g *treeGrower) bestSplit(samples []int, positives int) split {
	for k := range g.mark {
		delete(g.mark, k)
	}
	for _, s := range samples {
		for _, j := range g.x[s].Indices {
			g.mark[j] = struct{}{}
		}
	}
	candidates := make([]int, 0, len(g.mark))
	for j := range g.mark {
		candidates = append(candidates, j)
	}
	sort.Ints(candidates)

	best := split{}
	visited := 0
	for i := 0; i < len(candidates) && visited < g.maxFeatures; i++ {
		k := i + g.rng.Intn(len(candidates)-i)
		candidates[i], candidates[k] = candidates[k], candidates[i]

		s, constant := g.evaluate(samples, positives, candidates[i])
		if constant {
			continue
		}
		visited++
		if s.found && (!best.found || s.score > best.score) {
			best = s
		}
	}
	return best
}

// evaluate finds the best threshold on one feature. The score is the Gini proxy
// sum over children of (sum of squared class counts) / child size; higher is better.
func (g *treeGrower) evaluate(samples []int, positives, feature int) (split, bool) {
	g.pairs = g.pairs[:0]
	for _, s := range samples {
		g.pairs = append(g.pairs, valueLabel{value: g.x[s].Get(feature), label: g.y[s]})
	}
	sort.Slice(g.pairs, func(a, b int) bool { return g.pairs[a].value < g.pairs[b].value })

	n := len(g.pairs)
	if g.pairs[0].value == g.pairs[n-1].value {
		return split{}, true
	}

	best := split{feature: feature}
	leftPos := 0
	for i := 0; i < n-1; i++ {
		leftPos += g.pairs[i].label
		if g.pairs[i].value == g.pairs[i+1].value {
			continue
		}
		nl := float64(i + 1)
		nr := float64(n - i - 1)
		lp := float64(leftPos)
		ln := nl - lp
		rp := float64(positives - leftPos)
		rn := nr - rp
		score := (lp*lp+ln*ln)/nl + (rp*rp+rn*rn)/nr
		if !best.found || score > best.score {
			best.score = score
			best.threshold = g.pairs[i].value/2 + g.pairs[i+1].value/2
			if best.threshold >= g.pairs[i+1].value {
				best.threshold = g.pairs[i].value
			}
			best.found = true
		}
	}
	return best, false
}

// partition reorders samples so those satisfying left come first and returns
// how many there are.
func partition(samples []int, left func(int) bool) int {
	i, j := 0, len(samples)-1
	for i <= j {
		if left(samples[i]) {
			i++
			continue
		}
		samples[i], samples[j] = samples[j], samples[i]
		j--
	}
	return i
}

// PredictProba returns the positive share of the leaf x falls into.
func (t *DecisionTree) PredictProba(x Vector) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Positive
		}
		if x.Get(node.Feature) <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

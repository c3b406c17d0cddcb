package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// leafChild marks a node without children, as in the exported CART arrays.
const leafChild = -1

// Node is one entry of a flattened CART tree. A split sends a row left when
// row[Feature] <= Threshold. A node whose Left and Right are both -1 is a
// leaf predicting class Value.
type Node struct {
	Feature   int     `json:"feature"   yaml:"feature"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Left      int     `json:"left"      yaml:"left"`
	Right     int     `json:"right"     yaml:"right"`
	Value     int     `json:"value"     yaml:"value"`
}

func (n Node) isLeaf() bool { return n.Left == leafChild && n.Right == leafChild }

// DecisionTree is a fitted CART classifier over integer feature codes.
// It is immutable after construction.
type DecisionTree struct {
	nFeatures int
	nodes     []Node
}

// NewDecisionTree validates the node table and returns a tree rooted at
// node 0. Every node reachable from the root is visited exactly once, so
// shared subtrees and cycles are rejected.
func NewDecisionTree(nFeatures int, nodes []Node) (*DecisionTree, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("dtree: n_features must be positive, got %d", nFeatures)
	}
	if len(nodes) == 0 {
		return nil, errors.New("dtree: no nodes")
	}

	seen := make([]bool, len(nodes))
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			return nil, fmt.Errorf("dtree: node %d reached twice", i)
		}
		seen[i] = true

		n := nodes[i]
		if n.isLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return nil, fmt.Errorf("dtree: node %d splits on feature %d, model has %d", i, n.Feature, nFeatures)
		}
		for _, child := range [2]int{n.Left, n.Right} {
			if child < 0 || child >= len(nodes) {
				return nil, fmt.Errorf("dtree: node %d has child %d out of range", i, child)
			}
			stack = append(stack, child)
		}
	}

	cp := make([]Node, len(nodes))
	copy(cp, nodes)
	return &DecisionTree{nFeatures: nFeatures, nodes: cp}, nil
}

// NumFeatures returns the row width the tree expects.
func (t *DecisionTree) NumFeatures() int { return t.nFeatures }

// Predict implements Classifier.
func (t *DecisionTree) Predict(ctx context.Context, rows [][]int) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := t.predictOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (t *DecisionTree) predictOne(row []int) (int, error) {
	if len(row) != t.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(row), t.nFeatures)
	}
	i := 0
	for !t.nodes[i].isLeaf() {
		n := t.nodes[i]
		if float64(row[n.Feature]) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.nodes[i].Value, nil
}

// RandomForest takes a majority vote over its trees. Ties go to the lowest
// class index so the result is deterministic.
type RandomForest struct {
	trees []*DecisionTree
}

// NewRandomForest returns a forest over trees, which must agree on width.
func NewRandomForest(trees []*DecisionTree) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest: no trees")
	}
	w := trees[0].nFeatures
	for i, t := range trees[1:] {
		if t.nFeatures != w {
			return nil, fmt.Errorf("forest: tree %d expects %d features, tree 0 expects %d", i+1, t.nFeatures, w)
		}
	}
	return &RandomForest{trees: trees}, nil
}

// Predict implements Classifier.
func (f *RandomForest) Predict(ctx context.Context, rows [][]int) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		votes := make(map[int]int, len(f.trees))
		for _, t := range f.trees {
			v, err := t.predictOne(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			votes[v]++
		}
		out[i] = majority(votes)
	}
	return out, nil
}

func majority(votes map[int]int) int {
	classes := make([]int, 0, len(votes))
	for c := range votes {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	best := classes[0]
	for _, c := range classes[1:] {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return best
}

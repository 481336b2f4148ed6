// Package ensemble implements the random-forest regressor used by the
// handcrafted-features benchmark: bagged CART regression trees with
// per-split feature subsampling.
package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the mean target of
// the training samples routed to them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// regressionTree is a CART tree grown by variance reduction.
type regressionTree struct {
	root            *treeNode
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	maxFeatures     int // number of features considered per split
	rng             *rand.Rand
}

// grow builds the tree on the samples selected by indices.
func (t *regressionTree) grow(X [][]float64, y []float64, indices []int) {
	t.root = t.buildNode(X, y, indices, 0)
}

func (t *regressionTree) buildNode(X [][]float64, y []float64, indices []int, depth int) *treeNode {
	mean := meanTarget(y, indices)

	if len(indices) < t.minSamplesSplit ||
		(t.maxDepth > 0 && depth >= t.maxDepth) ||
		constantTarget(y, indices) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := t.bestSplit(X, y, indices)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.buildNode(X, y, leftIdx, depth+1),
		right:     t.buildNode(X, y, rightIdx, depth+1),
	}
}

// bestSplit searches a random feature subset for the split with the largest
// reduction in squared error.
func (t *regressionTree) bestSplit(X [][]float64, y []float64, indices []int) (int, float64, bool) {
	nFeatures := len(X[0])

	candidates := t.sampleFeatures(nFeatures)

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)

	n := len(indices)
	sorted := make([]int, n)

	for _, f := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		// Running sums let each candidate threshold be scored in O(1).
		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := sorted[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			cur, next := X[i][f], X[sorted[pos+1]][f]
			if cur == next {
				continue
			}

			nl := float64(pos + 1)
			nr := float64(n - pos - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			// Within-node sum of squared errors on both sides.
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// sampleFeatures draws the feature subset considered at a split.
func (t *regressionTree) sampleFeatures(nFeatures int) []int {
	k := t.maxFeatures
	if k <= 0 || k > nFeatures {
		k = nFeatures
	}

	perm := t.rng.Perm(nFeatures)
	return perm[:k]
}

// predict routes one sample to its leaf.
func (t *regressionTree) predict(x []float64) float64 {
	node := t.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanTarget(y []float64, indices []int) float64 {
	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func constantTarget(y []float64, indices []int) bool {
	first := y[indices[0]]
	for _, i := range indices[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

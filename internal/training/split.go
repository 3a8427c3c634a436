package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split shuffles n row indices with seed and holds out testFrac of them
func Split(n int, testFrac float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(testFrac*float64(n) - 1e-9))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot hold out %.0f%% of %d samples", testFrac*100, n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}

// StratifiedSplit holds out testFrac of each label's rows so both halves keep
// the label proportions. Labels with a single row stay in the training half.
func StratifiedSplit(labels []string, testFrac float64, seed int64) (train, test []int, err error) {
	groups := map[string][]int{}
	var order []string
	for i, l := range labels {
		if _, ok := groups[l]; !ok {
			order = append(order, l)
		}
		groups[l] = append(groups[l], i)
	}
	sort.Strings(order)

	rng := rand.New(rand.NewSource(seed))
	for _, l := range order {
		idx := groups[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testFrac * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	if len(test) == 0 || len(train) == 0 {
		return nil, nil, fmt.Errorf("cannot hold out %.0f%% of %d samples", testFrac*100, len(labels))
	}
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}

func selectRows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func selectFloats(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func selectStrings(y []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

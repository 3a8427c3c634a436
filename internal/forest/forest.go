// Package forest implements random forests of CART trees for regression and
// classification. Trees are grown on bootstrap samples with a per-split random
// feature subset; predictions average the trees. Fitting is deterministic for
// a given seed regardless of how many trees are grown in parallel.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// ErrNotFitted is returned when predicting with a model that has no trees
var ErrNotFitted = errors.New("model is not fitted")

// Params controls forest fitting
type Params struct {
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	// MaxFeatures is the number of features tried per split; 0 means all.
	MaxFeatures int
	Seed        int64
}

// DefaultParams returns 100 trees of depth at most 10 with seed 42
func DefaultParams() Params {
	return Params{NTrees: 100, MaxDepth: 10, MinSamplesSplit: 2, Seed: 42}
}

func (p Params) validate() error {
	if p.NTrees < 1 {
		return fmt.Errorf("n_trees must be positive, got %d", p.NTrees)
	}
	if p.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be at least 2, got %d", p.MinSamplesSplit)
	}
	return nil
}

// Forest is the fitted state shared by regressors and classifiers
type Forest struct {
	Task        Task
	Params      Params
	NFeatures   int
	NClasses    int
	Trees       []Tree
	Importances []float64
}

func (f *Forest) fit(x [][]float64, y []float64) error {
	if err := f.Params.validate(); err != nil {
		return err
	}
	if len(x) == 0 {
		return errors.New("no training samples")
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d samples but %d targets", len(x), len(y))
	}
	f.NFeatures = len(x[0])
	for i, row := range x {
		if len(row) != f.NFeatures {
			return fmt.Errorf("sample %d has %d features, want %d", i, len(row), f.NFeatures)
		}
	}

	// Per-tree seeds are drawn up front so results do not depend on scheduling.
	master := rand.New(rand.NewSource(f.Params.Seed))
	seeds := make([]int64, f.Params.NTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, f.Params.NTrees)
	importances := make([][]float64, f.Params.NTrees)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for t := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewSource(seeds[t]))
			idx := bootstrap(len(x), rng)
			b := newTreeBuilder(x, y, f.Task, f.NClasses, f.Params, rng)
			trees[t] = *b.fit(idx)
			importances[t] = normalise(b.importance)
		}(t)
	}
	wg.Wait()

	f.Trees = trees
	f.Importances = make([]float64, f.NFeatures)
	for _, imp := range importances {
		for i, v := range imp {
			f.Importances[i] += v
		}
	}
	f.Importances = normalise(f.Importances)
	return nil
}

// average returns the mean leaf value across trees
func (f *Forest) average(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("got %d features, want %d", len(x), f.NFeatures)
	}
	var sum []float64
	for i := range f.Trees {
		v := f.Trees[i].leaf(x).Value
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for j := range v {
			sum[j] += v[j]
		}
	}
	for j := range sum {
		sum[j] /= float64(len(f.Trees))
	}
	return sum, nil
}

// FeatureImportances returns the normalised mean impurity decrease per feature
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

func normalise(v []float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}

// Regressor is a random forest predicting a continuous target
type Regressor struct {
	Forest
}

// NewRegressor creates an unfitted regressor
func NewRegressor(p Params) *Regressor {
	return &Regressor{Forest: Forest{Task: Regression, Params: p}}
}

// Fit grows the forest on x and y
func (r *Regressor) Fit(x [][]float64, y []float64) error {
	return r.fit(x, y)
}

// Predict returns the mean prediction of the trees for one sample
func (r *Regressor) Predict(x []float64) (float64, error) {
	v, err := r.average(x)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// PredictAll predicts every row of x
func (r *Regressor) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := r.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Classifier is a random forest predicting one of a fixed set of labels
type Classifier struct {
	Forest
	Classes []string
}

// NewClassifier creates an unfitted classifier
func NewClassifier(p Params) *Classifier {
	return &Classifier{Forest: Forest{Task: Classification, Params: p}}
}

// Fit grows the forest on x and labels. Classes are the sorted distinct labels.
func (c *Classifier) Fit(x [][]float64, labels []string) error {
	seen := map[string]bool{}
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, cl := range classes {
		index[cl] = i
	}
	y := make([]float64, len(labels))
	for i, l := range labels {
		y[i] = float64(index[l])
	}

	c.Classes = classes
	c.NClasses = len(classes)
	return c.fit(x, y)
}

// PredictProba returns the averaged class probabilities, indexed like Classes
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	return c.average(x)
}

// Predict returns the most probable label; ties go to the first class
func (c *Classifier) Predict(x []float64) (string, error) {
	probs, err := c.PredictProba(x)
	if err != nil {
		return "", err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return c.Classes[best], nil
}

// PredictAll predicts every row of x
func (c *Classifier) PredictAll(x [][]float64) ([]string, error) {
	out := make([]string, len(x))
	for i, row := range x {
		v, err := c.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

package training

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RegressionMetrics holds regressor scores on one split
type RegressionMetrics struct {
	MAE  float64 `yaml:"mae"`
	RMSE float64 `yaml:"rmse"`
	R2   float64 `yaml:"r2"`
}

// EvaluateRegression scores predictions against actual values
func EvaluateRegression(actual, predicted []float64) RegressionMetrics {
	if len(actual) == 0 {
		return RegressionMetrics{}
	}
	var abs, sq float64
	for i := range actual {
		d := actual[i] - predicted[i]
		abs += math.Abs(d)
		sq += d * d
	}
	n := float64(len(actual))
	return RegressionMetrics{
		MAE:  abs / n,
		RMSE: math.Sqrt(sq / n),
		R2:   stat.RSquaredFrom(predicted, actual, nil),
	}
}

// ClassificationMetrics holds classifier scores on one split. Confusion rows
// are actual classes and columns predicted classes, both in Classes order.
type ClassificationMetrics struct {
	Accuracy  float64  `yaml:"accuracy"`
	Classes   []string `yaml:"classes"`
	Confusion [][]int  `yaml:"confusion_matrix"`
}

// EvaluateClassification scores predicted labels against actual labels
func EvaluateClassification(classes, actual, predicted []string) ClassificationMetrics {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
		a, okA := index[actual[i]]
		p, okP := index[predicted[i]]
		if okA && okP {
			confusion[a][p]++
		}
	}

	m := ClassificationMetrics{Classes: classes, Confusion: confusion}
	if len(actual) > 0 {
		m.Accuracy = float64(correct) / float64(len(actual))
	}
	return m
}

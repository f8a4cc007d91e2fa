package model

import (
	"go-ml.dev/pkg/glm/fu"
	"math"
)

const (
	TrainSubset = "train"
	TestSubset  = "test"
)

/*
Metrics is a set of regression metrics of one subset on one iteration
*/
type Metrics struct {
	Iteration            int     `json:"iteration" yaml:"iteration"`
	Subset               string  `json:"subset" yaml:"subset"`
	Nobs                 int     `json:"nobs" yaml:"nobs"`
	MSE                  float64 `json:"mse" yaml:"mse"`
	RMSE                 float64 `json:"rmse" yaml:"rmse"`
	MAE                  float64 `json:"mae" yaml:"mae"`
	R2                   float64 `json:"r2" yaml:"r2"`
	Deviance             float64 `json:"residual_deviance" yaml:"residual_deviance"`
	NullDeviance         float64 `json:"null_deviance" yaml:"null_deviance"`
	MeanResidualDeviance float64 `json:"mean_residual_deviance" yaml:"mean_residual_deviance"`
}

/*
Deviance is a unit deviance of a distribution family
*/
type Deviance func(y, mu float64) float64

/*
Evaluate calculates metrics of predictions
*/
func Evaluate(iteration int, subset string, actual, predicted []float64, dev Deviance) Metrics {
	m := Metrics{Iteration: iteration, Subset: subset, Nobs: len(actual)}
	if len(actual) == 0 {
		return m
	}
	m.MSE = fu.Mse(actual, predicted)
	m.RMSE = math.Sqrt(m.MSE)
	m.MAE = fu.Mae(actual, predicted)
	mean := fu.Mean(actual)
	var tss float64
	for i, y := range actual {
		tss += (y - mean) * (y - mean)
		m.Deviance += dev(y, predicted[i])
		m.NullDeviance += dev(y, mean)
	}
	if tss > 0 {
		m.R2 = 1 - m.MSE*float64(len(actual))/tss
	}
	m.MeanResidualDeviance = m.Deviance / float64(len(actual))
	return m
}

/*
Score is a function to calculate training score from train and test metrics,
greater is better
*/
type Score func(train, test Metrics) float64

/*
DevianceScore prefers lower test deviance
*/
func DevianceScore(train, test Metrics) float64 {
	return -test.MeanResidualDeviance
}

/*
CombineMetrics aggregates per-fold metrics weighted by observations count
*/
func CombineMetrics(subset string, ms []Metrics) Metrics {
	r := Metrics{Subset: subset}
	for _, m := range ms {
		r.Nobs += m.Nobs
	}
	if r.Nobs == 0 {
		return r
	}
	for _, m := range ms {
		w := float64(m.Nobs) / float64(r.Nobs)
		r.MSE += m.MSE * w
		r.MAE += m.MAE * w
		r.R2 += m.R2 * w
		r.Deviance += m.Deviance
		r.NullDeviance += m.NullDeviance
	}
	r.RMSE = math.Sqrt(r.MSE)
	r.MeanResidualDeviance = r.Deviance / float64(r.Nobs)
	return r
}

package model

import (
	"context"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
)

/*
HungryModel is an ML algorithm grows from a data to predict something
Needs to be fattened by Feed method to fit.
*/
type HungryModel interface {
	Feed(Dataset) FatModel
}

/*
Report is an ML training report
*/
type Report struct {
	History     []Metrics // all iterations history, train and test metrics interleaved
	TheBest     int       // the best iteration
	Test, Train Metrics   // the best iteration metrics
	Score       float64   // the best score
	Model       Memorizer // the best iteration model
}

/*
Workout is a training iteration abstraction
*/
type Workout interface {
	Iteration() int
	Context() context.Context
	Complete(m Memorizer, train, test Metrics, converged bool) (*Report, bool, error)
	Next() Workout
	Verbose(string)
}

/*
UnifiedTraining is an interface allowing to write any logging/staging backend for ML training
*/
type UnifiedTraining interface {
	// Workout returns the first iteration workout
	Workout() Workout
}

/*
FatModel is fattened model (a training function of model instance bounded to a dataset)
*/
type FatModel func(workout Workout) (*Report, error)

/*
Train a fattened (Fat) model
*/
func (f FatModel) Train(training UnifiedTraining) (*Report, error) {
	w := training.Workout()
	if c, ok := w.(io.Closer); ok {
		defer c.Close()
	}
	return f(w)
}

/*
LuckyTrain trains fattened (Fat) model and trows any occurred errors as a panic
*/
func (f FatModel) LuckyTrain(training UnifiedTraining) *Report {
	m, err := f.Train(training)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return m
}

/*
Memorizer is a model state able to be stored
*/
type Memorizer interface {
	// Memorize returns a yaml serializable snapshot of the model
	Memorize() interface{}
}

/*
PredictionModel is a predictor interface
*/
type PredictionModel interface {
	// Features model uses when predicts
	// the same as Features in the training dataset
	Features() []string
	// Predict calculates the response for every row of the table,
	// the table must contain all features columns
	Predict(*tables.Table) ([]float64, error)
}

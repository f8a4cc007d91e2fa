package glm

import (
	"context"
	"go-ml.dev/pkg/glm/fu"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/folds"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/glm/registry"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zlog"
	"go-ml.dev/pkg/zorros/zorros"
	"golang.org/x/xerrors"
	"math"
	"time"
)

type options struct {
	registry     *registry.Registry
	verbose      func(string)
	coefficients iokit.Output
}

/*
Option is a training option
*/
type Option func(*options)

/*
WithRegistry registers the trained model and its cross-validation models
*/
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

/*
WithVerbose reports every training iteration
*/
func WithVerbose(f func(string)) Option {
	return func(o *options) { o.verbose = f }
}

/*
WithCoefficientsFile writes coefficients of the best iteration of the main model to the output,
they can be read back by LoadCoefficients
*/
func WithCoefficientsFile(output iokit.Output) Option {
	return func(o *options) { o.coefficients = output }
}

/*
LoadCoefficients reads coefficients written by training
*/
func LoadCoefficients(input iokit.Input) (*Coefficients, error) {
	c := &Coefficients{}
	if err := model.RecallInput(input, c); err != nil {
		return nil, err
	}
	if len(c.Beta) != len(c.Names) {
		return nil, zorros.Errorf("coefficients have %d names but %d values", len(c.Names), len(c.Beta))
	}
	return c, nil
}

/*
Train fits GLM on the frame using parameters p.
The model identifier is accepted as is, an empty identifier is replaced by a generated one.
*/
func Train(ctx context.Context, frame *tables.Table, p Parameters, opts ...Option) (*Model, error) {
	o := options{}
	for _, f := range opts {
		f(&o)
	}
	id := key.Parse(p.ModelID)
	p.ModelID = id.Name
	if err := p.Validate(frame); err != nil {
		zlog.Errorf("glm `%v`: %v", id.Name, err)
		return nil, err
	}
	if p.Seed == -1 {
		p.Seed = time.Now().UnixNano()
	}
	zlog.Infof("glm `%v`: %v family, %d rows, %d predictors, nfolds=%d",
		id.Name, p.Family, frame.Len(), len(p.X), p.NFolds)

	m := &Model{ID: id, Parameters: p}
	if p.NFolds > 0 {
		if err := crossValidate(ctx, frame, m, &o); err != nil {
			zlog.Errorf("glm `%v`: cross-validation failed: %v", id.Name, err)
			return nil, err
		}
	}
	main, err := fit(ctx, id, p.dataset(frame), p, &o, o.coefficients)
	if err != nil {
		zlog.Errorf("glm `%v`: %v", id.Name, err)
		return nil, err
	}
	m.Coefficients = main.Coefficients
	m.Iterations = main.Iterations
	m.TrainingMetrics = main.TrainingMetrics
	m.Created = main.Created

	if o.registry != nil {
		if err := register(ctx, o.registry, m); err != nil {
			zlog.Errorf("glm `%v`: %v", id.Name, err)
			return nil, err
		}
	}
	zlog.Infof("glm `%v`: trained in %d iterations, training mse %.6g", id.Name, m.Iterations, m.TrainingMetrics.MSE)
	return m, nil
}

// register puts the model and then its cross-validation models, all of them are removed on failure
func register(ctx context.Context, r *registry.Registry, m *Model) error {
	if _, err := r.Put(ctx, m); err != nil {
		return err
	}
	for i, x := range m.CrossValidationModels {
		if _, err := r.Put(ctx, x); err != nil {
			for _, y := range m.CrossValidationModels[:i] {
				if e := r.Remove(ctx, y.ID.Name); e != nil {
					zlog.Warningf("glm `%v`: %v", y.ID.Name, e)
				}
			}
			if e := r.Remove(ctx, m.ID.Name); e != nil {
				zlog.Warningf("glm `%v`: %v", m.ID.Name, e)
			}
			return err
		}
	}
	return nil
}

func fit(ctx context.Context, id key.Key, ds model.Dataset, p Parameters, o *options, output iokit.Output) (*Model, error) {
	report, err := Estimator{p}.Feed(ds).Train(model.Training{
		Context:    ctx,
		Iterations: fu.Fnzi(p.MaxIterations, DefaultMaxIterations),
		ModelFile:  output,
		Verbose:    o.verbose,
	})
	if err != nil {
		return nil, err
	}
	coefs, ok := report.Model.(*Coefficients)
	if !ok {
		return nil, zorros.Errorf("unexpected model type %T", report.Model)
	}
	return &Model{
		ID:              id,
		Parameters:      p,
		Coefficients:    coefs,
		Iterations:      report.TheBest + 1,
		Created:         time.Now().UTC(),
		TrainingMetrics: report.Train,
	}, nil
}

// holdoutMetrics evaluates predictions on rows having the response
func holdoutMetrics(f Family, y, pred []float64) model.Metrics {
	ya := make([]float64, 0, len(y))
	pa := make([]float64, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			ya = append(ya, v)
			pa = append(pa, pred[i])
		}
	}
	return model.Evaluate(0, model.TestSubset, ya, pa, f.Deviance)
}

func predictionFrame(id key.Key, values []float64) (*Frame, error) {
	t, err := tables.NewEmpty(nil).With("predict", values)
	if err != nil {
		return nil, err
	}
	return &Frame{id, t}, nil
}

func crossValidate(ctx context.Context, frame *tables.Table, m *Model, o *options) error {
	p := m.Parameters
	assignment, err := folds.Assign(frame.Len(), p.NFolds, p.FoldAssignment, p.Seed, frame.Col(p.Y))
	if err != nil {
		return err
	}
	holdout := make([]float64, frame.Len())
	metrics := make([]model.Metrics, 0, p.NFolds)
	for i := 0; i < p.NFolds; i++ {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("cross-validation aborted: %w", err)
		}
		cvid := m.ID.CV(i + 1)
		train, test := folds.Split(assignment, i)
		cvp := p
		cvp.ModelID = cvid.Name
		cvp.NFolds = 0
		ds := model.Dataset{Source: frame.Take(train), Test: frame.Take(test), Label: p.Y, Features: p.X}
		cvm, err := fit(ctx, cvid, ds, cvp, o, nil)
		if err != nil {
			return err
		}
		pred, err := cvm.Predict(ds.Test)
		if err != nil {
			return err
		}
		vm := holdoutMetrics(p.Family, ds.Test.Col(p.Y), pred)
		cvm.ValidationMetrics = &vm
		metrics = append(metrics, vm)
		for j, r := range test {
			holdout[r] = pred[j]
		}
		if p.KeepCrossValidationPredictions {
			fold := make([]float64, frame.Len())
			for j, r := range test {
				fold[r] = pred[j]
			}
			f, err := predictionFrame(m.ID.FoldPrediction(i+1), fold)
			if err != nil {
				return err
			}
			m.CrossValidationFoldPredictions = append(m.CrossValidationFoldPredictions, f)
		}
		if p.KeepCrossValidationModels {
			m.CrossValidationModels = append(m.CrossValidationModels, cvm)
		}
		zlog.Infof("glm `%v`: fold %d/%d holdout mse %.6g", m.ID.Name, i+1, p.NFolds, vm.MSE)
	}
	cv := model.CombineMetrics(model.TestSubset, metrics)
	m.CrossValidationMetrics = &cv
	if p.KeepCrossValidationPredictions {
		if m.CrossValidationHoldoutPredictions, err = predictionFrame(m.ID.Holdout(), holdout); err != nil {
			return err
		}
	}
	return nil
}

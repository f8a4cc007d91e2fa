package glm

import (
	"fmt"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"strings"
	"text/tabwriter"
	"time"
)

const Algo = "glm"

var _ model.PredictionModel = (*Model)(nil)

/*
Frame is a table registered under an identifier
*/
type Frame struct {
	ID key.Key
	*tables.Table
}

/*
Model is a trained GLM
*/
type Model struct {
	ID                     key.Key
	Parameters             Parameters
	Coefficients           *Coefficients
	Iterations             int
	Created                time.Time
	TrainingMetrics        model.Metrics
	ValidationMetrics      *model.Metrics // holdout metrics of a cross-validation model
	CrossValidationMetrics *model.Metrics

	CrossValidationModels             []*Model
	CrossValidationHoldoutPredictions *Frame
	CrossValidationFoldPredictions    []*Frame
}

func (m *Model) Identifier() key.Key {
	return m.ID
}

func (m *Model) Algo() string {
	return Algo
}

func (m *Model) Features() []string {
	return m.Coefficients.Features()
}

func (m *Model) Predict(t *tables.Table) ([]float64, error) {
	return m.Coefficients.Predict(t)
}

type artifact struct {
	Name                   string         `yaml:"name"`
	Key                    string         `yaml:"key"`
	Algo                   string         `yaml:"algo"`
	Created                time.Time      `yaml:"created"`
	Parameters             Parameters     `yaml:"parameters"`
	Coefficients           *Coefficients  `yaml:"coefficients"`
	Iterations             int            `yaml:"iterations"`
	TrainingMetrics        model.Metrics  `yaml:"training_metrics"`
	ValidationMetrics      *model.Metrics `yaml:"validation_metrics,omitempty"`
	CrossValidationMetrics *model.Metrics `yaml:"cross_validation_metrics,omitempty"`
	CrossValidationModels  []string       `yaml:"cross_validation_models,omitempty"`
}

func (m *Model) Memorize() interface{} {
	a := artifact{
		Name:                   m.ID.Name,
		Key:                    m.ID.Key,
		Algo:                   Algo,
		Created:                m.Created,
		Parameters:             m.Parameters,
		Coefficients:           m.Coefficients,
		Iterations:             m.Iterations,
		TrainingMetrics:        m.TrainingMetrics,
		ValidationMetrics:      m.ValidationMetrics,
		CrossValidationMetrics: m.CrossValidationMetrics,
	}
	for _, x := range m.CrossValidationModels {
		a.CrossValidationModels = append(a.CrossValidationModels, x.ID.Name)
	}
	return a
}

/*
Load reads a model memorized by registry or model.Memorize
*/
func Load(input iokit.Input) (*Model, error) {
	a := artifact{}
	if err := model.RecallInput(input, &a); err != nil {
		return nil, err
	}
	if a.Algo != Algo {
		return nil, zorros.Errorf("artifact is a `%v` model, not %v", a.Algo, Algo)
	}
	if a.Coefficients == nil {
		return nil, zorros.New("artifact has no coefficients")
	}
	k, err := key.WithName(a.Key, a.Name)
	if err != nil {
		return nil, err
	}
	return &Model{
		ID:                     k,
		Parameters:             a.Parameters,
		Coefficients:           a.Coefficients,
		Iterations:             a.Iterations,
		Created:                a.Created,
		TrainingMetrics:        a.TrainingMetrics,
		ValidationMetrics:      a.ValidationMetrics,
		CrossValidationMetrics: a.CrossValidationMetrics,
	}, nil
}

func writeMetrics(w *tabwriter.Writer, title string, m model.Metrics) {
	fmt.Fprintf(w, "%s\tnobs=%d\tmse=%.6g\trmse=%.6g\tmae=%.6g\tr2=%.6g\tmean_residual_deviance=%.6g\n",
		title, m.Nobs, m.MSE, m.RMSE, m.MAE, m.R2, m.MeanResidualDeviance)
}

/*
Summary returns human readable model description
*/
func (m *Model) Summary() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Model `%s` (key %s)\n", m.ID.Name, m.ID.Key)
	fmt.Fprintf(b, "family: %v, iterations: %d, nfolds: %d, fold assignment: %v\n",
		m.Parameters.Family, m.Iterations, m.Parameters.NFolds, m.Parameters.FoldAssignment)
	w := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Intercept\t%.6g\n", m.Coefficients.Intercept)
	for i, n := range m.Coefficients.Names {
		fmt.Fprintf(w, "%s\t%.6g\n", n, m.Coefficients.Beta[i])
	}
	writeMetrics(w, "training", m.TrainingMetrics)
	if m.CrossValidationMetrics != nil {
		writeMetrics(w, "cross-validation", *m.CrossValidationMetrics)
	}
	_ = w.Flush()
	for _, x := range m.CrossValidationModels {
		fmt.Fprintf(b, "cv model: %s\n", x.ID.Name)
	}
	if m.CrossValidationHoldoutPredictions != nil {
		fmt.Fprintf(b, "holdout predictions: %s\n", m.CrossValidationHoldoutPredictions.ID.Name)
	}
	return b.String()
}

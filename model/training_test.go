package model

import (
	"go-ml.dev/pkg/iokit"
	"gotest.tools/assert"
	"math"
	"path/filepath"
	"testing"
)

type constant struct {
	Value float64 `yaml:"value"`
}

func (c constant) Memorize() interface{} { return c }

func sqdev(y, mu float64) float64 { return (y - mu) * (y - mu) }

// fat emits test deviance from the list and converges after the last value
func fat(devs []float64, converge bool) FatModel {
	return func(w Workout) (*Report, error) {
		for i := 0; w != nil; i++ {
			m := Metrics{Iteration: i, Nobs: 1, MeanResidualDeviance: devs[i]}
			r, done, err := w.Complete(constant{float64(i)}, m, m, converge && i == len(devs)-1)
			if err != nil {
				return nil, err
			}
			if done {
				return r, nil
			}
			w = w.Next()
		}
		panic("unreachable")
	}
}

func Test_TrainConverged(t *testing.T) {
	var lines []string
	r, err := fat([]float64{3, 2, 1}, true).Train(Training{Iterations: 10, Verbose: func(s string) { lines = append(lines, s) }})
	assert.NilError(t, err)
	assert.Assert(t, r.TheBest == 2)
	assert.Assert(t, r.Score == -1)
	assert.Assert(t, len(r.History) == 6)
	assert.Assert(t, len(lines) == 3)
	assert.Assert(t, r.Model.(constant).Value == 2)
}

func Test_TrainMaxIterations(t *testing.T) {
	r := fat([]float64{3, 1, 2, 4, 5}, false).LuckyTrain(Training{Iterations: 3})
	assert.Assert(t, r.TheBest == 1)
	assert.Assert(t, r.Test.MeanResidualDeviance == 1)
}

func Test_TrainScoreHistory(t *testing.T) {
	r := fat([]float64{5, 1, 2, 3, 4, 6, 7, 8}, false).LuckyTrain(Training{Iterations: 100, ScoreHistory: 2})
	assert.Assert(t, r.TheBest == 1, "best %d", r.TheBest)
	assert.Assert(t, len(r.History) < 16)
}

func Test_TrainModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml.xz")
	r, err := fat([]float64{3, 2, 2.5, 3}, false).Train(Training{Iterations: 4, ModelFile: iokit.File(path)})
	assert.NilError(t, err)
	assert.Assert(t, r.TheBest == 1)
	c := constant{}
	assert.NilError(t, RecallInput(iokit.File(path), &c))
	assert.Assert(t, c.Value == 1)
}

func Test_Evaluate(t *testing.T) {
	m := Evaluate(0, TestSubset, []float64{1, 2, 3}, []float64{1, 2, 4}, sqdev)
	assert.Assert(t, m.Nobs == 3)
	assert.Assert(t, math.Abs(m.MSE-1.0/3) < 1e-12)
	assert.Assert(t, math.Abs(m.Deviance-1) < 1e-12)
	assert.Assert(t, math.Abs(m.NullDeviance-2) < 1e-12)
	assert.Assert(t, math.Abs(m.R2-0.5) < 1e-12)
	c := CombineMetrics(TestSubset, []Metrics{m, m})
	assert.Assert(t, c.Nobs == 6)
	assert.Assert(t, math.Abs(c.MSE-m.MSE) < 1e-12)
	assert.Assert(t, math.Abs(c.Deviance-2) < 1e-12)
}

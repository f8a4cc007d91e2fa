package glm

import (
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
)

var _ model.PredictionModel = (*Coefficients)(nil)

/*
Coefficients is a fitted GLM in the original predictors scale
*/
type Coefficients struct {
	Family       Family      `yaml:"family"`
	Intercept    float64     `yaml:"intercept"`
	Names        []string    `yaml:"names"`
	Beta         []float64   `yaml:"beta"`
	Standardized []float64   `yaml:"standardized"`
	Predictors   []Predictor `yaml:"predictors"`
}

func (c *Coefficients) Memorize() interface{} {
	return c
}

/*
Coefficient returns the named coefficient, "Intercept" is the intercept.
A level indicator is named column.level
*/
func (c *Coefficients) Coefficient(name string) (float64, bool) {
	if name == "Intercept" {
		return c.Intercept, true
	}
	for i, n := range c.Names {
		if n == name {
			return c.Beta[i], true
		}
	}
	return 0, false
}

func (c *Coefficients) Features() []string {
	r := make([]string, len(c.Predictors))
	for i, p := range c.Predictors {
		r[i] = p.Column
	}
	return r
}

/*
Predict calculates the mean response for every row,
the table must contain all predictors by name
*/
func (c *Coefficients) Predict(t *tables.Table) ([]float64, error) {
	cols := make([]int, len(c.Predictors))
	for j, p := range c.Predictors {
		if cols[j] = t.ColIndex(p.Column); cols[j] < 0 {
			return nil, zorros.Errorf("table does not have column `%v`", p.Column)
		}
	}
	r := make([]float64, t.Len())
	if len(r) == 0 {
		return r, nil
	}
	if len(c.Beta) > 0 {
		x, err := expand(t, cols, c.Predictors, len(c.Beta), false)
		if err != nil {
			return nil, err
		}
		eta := mat.NewVecDense(len(r), r)
		eta.MulVec(x, mat.NewVecDense(len(c.Beta), c.Beta))
	}
	for i, v := range r {
		r[i] = c.Family.linkInv(v + c.Intercept)
	}
	return r, nil
}

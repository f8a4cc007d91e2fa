package glm

import (
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"math"
)

/*
Predictor is an input column of the model.
A categorical predictor expands to one indicator per level starting from First.
*/
type Predictor struct {
	Column string   `yaml:"column"`
	Levels []string `yaml:"levels,omitempty"`
	First  int      `yaml:"first,omitempty"`
	Offset int      `yaml:"offset"`
	Impute float64  `yaml:"impute"` // mean, or the most frequent level for categorical
}

func (p Predictor) categorical() bool {
	return len(p.Levels) > 0
}

func (p Predictor) width() int {
	if p.categorical() {
		return len(p.Levels) - p.First
	}
	return 1
}

// levelMap maps levels of the table column to the predictor levels, -1 for unseen ones
func (p Predictor) levelMap(t *tables.Table, col int) ([]int, error) {
	if !t.IsCategorical(col) {
		return nil, zorros.Errorf("column `%v` must be categorical", p.Column)
	}
	idx := make(map[string]int, len(p.Levels))
	for i, s := range p.Levels {
		idx[s] = i
	}
	r := make([]int, len(t.Levels(col)))
	for i, s := range t.Levels(col) {
		if j, ok := idx[s]; ok {
			r[i] = j
		} else {
			r[i] = -1
		}
	}
	return r, nil
}

/*
expand returns the rows x width matrix of imputed predictors with one-hot encoded levels.
The last column is filled by 1 when intercept is required.
*/
func expand(t *tables.Table, cols []int, ps []Predictor, width int, intercept bool) (*mat.Dense, error) {
	n := t.Len()
	k := width
	if intercept {
		k++
	}
	if k == 0 {
		return nil, zorros.New("model has no predictors")
	}
	x := mat.NewDense(n, k, nil)
	raw := t.Matrix(cols)
	for j, p := range ps {
		var lm []int
		if p.categorical() {
			var err error
			if lm, err = p.levelMap(t, cols[j]); err != nil {
				return nil, err
			}
		} else if t.IsCategorical(cols[j]) {
			return nil, zorros.Errorf("column `%v` must be numeric", p.Column)
		}
		for i := 0; i < n; i++ {
			v := raw.At(i, j)
			if p.categorical() {
				l := int(p.Impute)
				if !math.IsNaN(v) && lm[int(v)] >= 0 {
					l = lm[int(v)]
				}
				if l >= p.First {
					x.Set(i, p.Offset+l-p.First, 1)
				}
			} else {
				if math.IsNaN(v) {
					v = p.Impute
				}
				x.Set(i, p.Offset, v)
			}
		}
	}
	if intercept {
		for i := 0; i < n; i++ {
			x.Set(i, width, 1)
		}
	}
	return x, nil
}

// dataInfo holds predictors transformation learned on the training frame
type dataInfo struct {
	predictors []Predictor
	order      []int // feature index of every predictor
	normSub    []float64
	normMul    []float64
	width      int
	intercept  bool
}

/*
newDataInfo puts categorical predictors first, numeric ones follow.
The first level of a categorical predictor has no indicator when the model has intercept
unless all levels are used. Numeric predictors are standardized if required.
*/
func newDataInfo(t *tables.Table, features []int, standardize, intercept, allLevels bool) (dataInfo, error) {
	di := dataInfo{intercept: intercept}
	for pass := 0; pass < 2; pass++ {
		for j, c := range features {
			if t.IsCategorical(c) != (pass == 0) {
				continue
			}
			p := Predictor{Column: t.Name(c), Offset: di.width}
			if pass == 0 {
				p.Levels = t.Levels(c)
				if len(p.Levels) == 0 {
					return dataInfo{}, zorros.Errorf("categorical column `%v` has no levels", p.Column)
				}
				counts := make([]int, len(p.Levels))
				for _, v := range t.Col(c) {
					if !math.IsNaN(v) {
						counts[int(v)]++
					}
				}
				mode := 0
				for l, n := range counts {
					if n > counts[mode] {
						mode = l
					}
				}
				p.Impute = float64(mode)
				if intercept && !allLevels {
					p.First = 1
				}
				for l := p.First; l < len(p.Levels); l++ {
					di.normSub = append(di.normSub, 0)
					di.normMul = append(di.normMul, 1)
				}
			} else {
				sub, mul := 0., 1.
				x := make([]float64, 0, t.Len())
				for _, v := range t.Col(c) {
					if !math.IsNaN(v) {
						x = append(x, v)
					}
				}
				if len(x) > 0 {
					mean, sd := stat.MeanStdDev(x, nil)
					p.Impute = mean
					if standardize {
						if intercept {
							sub = mean
						}
						if sd > 0 && !math.IsNaN(sd) {
							mul = 1 / sd
						}
					}
				}
				di.normSub = append(di.normSub, sub)
				di.normMul = append(di.normMul, mul)
			}
			di.predictors = append(di.predictors, p)
			di.order = append(di.order, j)
			di.width += p.width()
		}
	}
	return di, nil
}

func (di dataInfo) columns(features []int) []int {
	cols := make([]int, len(di.order))
	for i, j := range di.order {
		cols[i] = features[j]
	}
	return cols
}

// names returns names of the expanded predictors, a level indicator is named column.level
func (di dataInfo) names() []string {
	r := make([]string, 0, di.width)
	for _, p := range di.predictors {
		if p.categorical() {
			for _, l := range p.Levels[p.First:] {
				r = append(r, p.Column+"."+l)
			}
		} else {
			r = append(r, p.Column)
		}
	}
	return r
}

// design returns the transformed predictors matrix, the last column is intercept if required
func (di dataInfo) design(t *tables.Table, features []int) (*mat.Dense, error) {
	x, err := expand(t, di.columns(features), di.predictors, di.width, di.intercept)
	if err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	for j := 0; j < di.width; j++ {
		if di.normSub[j] == 0 && di.normMul[j] == 1 {
			continue
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, (x.At(i, j)-di.normSub[j])*di.normMul[j])
		}
	}
	return x, nil
}

// coefficients maps the standardized solution back to the original scale
func (di dataInfo) coefficients(f Family, beta []float64) *Coefficients {
	c := &Coefficients{
		Family:       f,
		Names:        di.names(),
		Beta:         make([]float64, di.width),
		Standardized: append([]float64(nil), beta...),
		Predictors:   append([]Predictor(nil), di.predictors...),
	}
	if di.intercept {
		c.Intercept = beta[di.width]
	}
	for j := 0; j < di.width; j++ {
		c.Beta[j] = beta[j] * di.normMul[j]
		c.Intercept -= beta[j] * di.normSub[j] * di.normMul[j]
	}
	return c
}

/*
Package tables implements a column oriented table used as the training frame of models.
A column is numeric or categorical. Categorical values are stored as indices of
the column levels, a missing value is NaN in both cases.
*/
package tables

import (
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
	"math"
	"sort"
	"strings"
)

/*
Table is an immutable set of equal length columns
*/
type Table struct {
	names   []string
	columns [][]float64
	levels  [][]string // nil for numeric columns
}

/*
New creates a table from names and numeric columns, all columns must have the same length
*/
func New(names []string, columns [][]float64) (*Table, error) {
	if len(names) != len(columns) {
		return nil, zorros.Errorf("table has %d names but %d columns", len(names), len(columns))
	}
	for i, c := range columns {
		if len(c) != len(columns[0]) {
			return nil, zorros.Errorf("column `%v` has length %d, expected %d", names[i], len(c), len(columns[0]))
		}
	}
	return &Table{names: names, columns: columns, levels: make([][]string, len(columns))}, nil
}

/*
NewEmpty creates a table with named numeric columns and no rows
*/
func NewEmpty(names []string) *Table {
	columns := make([][]float64, len(names))
	for i := range columns {
		columns[i] = []float64{}
	}
	return &Table{names: names, columns: columns, levels: make([][]string, len(names))}
}

func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0])
}

func (t *Table) Width() int {
	return len(t.columns)
}

func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

func (t *Table) Name(i int) string {
	return t.names[i]
}

/*
Col returns the column by index, it must not be modified
*/
func (t *Table) Col(i int) []float64 {
	return t.columns[i]
}

/*
Levels returns sorted levels of a categorical column or nil for a numeric one
*/
func (t *Table) Levels(i int) []string {
	return t.levels[i]
}

func (t *Table) IsCategorical(i int) bool {
	return t.levels[i] != nil
}

/*
Level returns the level of the row in a categorical column, ok is false for a missing value
*/
func (t *Table) Level(col, row int) (string, bool) {
	v := t.columns[col][row]
	if math.IsNaN(v) || t.levels[col] == nil {
		return "", false
	}
	return t.levels[col][int(v)], true
}

/*
ColIndex returns index of the named column or -1
*/
func (t *Table) ColIndex(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

/*
Take returns a new table containing the rows in the given order
*/
func (t *Table) Take(rows []int) *Table {
	columns := make([][]float64, len(t.columns))
	for j, c := range t.columns {
		x := make([]float64, len(rows))
		for i, r := range rows {
			x[i] = c[r]
		}
		columns[j] = x
	}
	return &Table{names: t.names, columns: columns, levels: t.levels}
}

func (t *Table) with(name string, col []float64, levels []string) (*Table, error) {
	if t.Width() > 0 && len(col) != t.Len() {
		return nil, zorros.Errorf("column `%v` has length %d, expected %d", name, len(col), t.Len())
	}
	return &Table{
		names:   append(append([]string(nil), t.names...), name),
		columns: append(append([][]float64(nil), t.columns...), col),
		levels:  append(append([][]string(nil), t.levels...), levels),
	}, nil
}

/*
With returns a new table with one more numeric column appended
*/
func (t *Table) With(name string, col []float64) (*Table, error) {
	return t.with(name, col, nil)
}

/*
WithCategorical returns a new table with one more categorical column appended.
Empty and NA values are missing.
*/
func (t *Table) WithCategorical(name string, values []string) (*Table, error) {
	col, levels := factorize(values)
	return t.with(name, col, levels)
}

func isMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

// factorize maps values to indices of sorted unique levels
func factorize(values []string) ([]float64, []string) {
	index := map[string]int{}
	for _, s := range values {
		if !isMissing(s) {
			index[s] = 0
		}
	}
	levels := make([]string, 0, len(index))
	for s := range index {
		levels = append(levels, s)
	}
	sort.Strings(levels)
	for i, s := range levels {
		index[s] = i
	}
	col := make([]float64, len(values))
	for i, s := range values {
		if isMissing(s) {
			col[i] = math.NaN()
		} else {
			col[i] = float64(index[s])
		}
	}
	return col, levels
}

/*
Matrix returns selected columns as a dense rows x len(cols) matrix,
categorical columns give level indices
*/
func (t *Table) Matrix(cols []int) *mat.Dense {
	n := t.Len()
	if n == 0 || len(cols) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		col := t.columns[c]
		for i := 0; i < n; i++ {
			m.Set(i, j, col[i])
		}
	}
	return m
}

package tables

import (
	"compress/gzip"
	"gotest.tools/assert"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const csvText = `"a","b","c"
1,2,3
4,NA,6
7,8,9
`

func Test_ReadCSVHeader(t *testing.T) {
	q, err := ReadCSV(strings.NewReader(csvText))
	assert.NilError(t, err)
	assert.DeepEqual(t, q.Names(), []string{"a", "b", "c"})
	assert.Assert(t, q.Len() == 3)
	assert.Assert(t, q.Width() == 3)
	assert.Assert(t, math.IsNaN(q.Col(1)[1]))
	assert.Assert(t, q.Col(2)[2] == 9)
	assert.Assert(t, q.ColIndex("c") == 2)
	assert.Assert(t, q.ColIndex("d") == -1)
}

func Test_ReadCSVNoHeader(t *testing.T) {
	q, err := ReadCSV(strings.NewReader("1,2\n3,4\n"))
	assert.NilError(t, err)
	assert.DeepEqual(t, q.Names(), []string{"C1", "C2"})
	assert.Assert(t, q.Len() == 2)
	assert.Assert(t, q.Col(0)[1] == 3)
}

func Test_ReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	assert.ErrorContains(t, err, "csv line 3 has 1 fields, expected 2")
	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "csv is empty")
}

func Test_HeaderOnly(t *testing.T) {
	q, err := ReadCSV(strings.NewReader("a,b\n"))
	assert.NilError(t, err)
	assert.Assert(t, q.Len() == 0)
	assert.Assert(t, q.Width() == 2)
}

func Test_TakeWithMatrix(t *testing.T) {
	q, err := ReadCSV(strings.NewReader(csvText))
	assert.NilError(t, err)
	x := q.Take([]int{2, 0})
	assert.Assert(t, x.Len() == 2)
	assert.Assert(t, x.Col(0)[0] == 7)
	assert.Assert(t, x.Col(0)[1] == 1)
	y, err := x.With("d", []float64{10, 20})
	assert.NilError(t, err)
	assert.Assert(t, y.Width() == 4)
	assert.Assert(t, x.Width() == 3)
	_, err = x.With("e", []float64{1})
	assert.ErrorContains(t, err, "has length 1")
	m := y.Matrix([]int{3, 0})
	r, c := m.Dims()
	assert.Assert(t, r == 2 && c == 2)
	assert.Assert(t, m.At(1, 0) == 20)
	assert.Assert(t, m.At(1, 1) == 1)
}

func Test_ImportFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "t.csv")
	assert.NilError(t, os.WriteFile(plain, []byte(csvText), 0644))
	q := LuckyImport(plain)
	assert.Assert(t, q.Len() == 3)

	zipped := filepath.Join(dir, "t.csv.gz")
	f, err := os.Create(zipped)
	assert.NilError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(csvText))
	assert.NilError(t, err)
	assert.NilError(t, w.Close())
	assert.NilError(t, f.Close())
	z, err := ImportFile(zipped)
	assert.NilError(t, err)
	assert.DeepEqual(t, z.Names(), q.Names())
	assert.Assert(t, z.Col(0)[2] == 7)

	_, err = ImportFile(filepath.Join(dir, "absent.csv"))
	assert.ErrorContains(t, err, "failed to import")
}

func Test_ReadCSVCategorical(t *testing.T) {
	q, err := ReadCSV(strings.NewReader("x,color,y\n1, red ,2\n2,blue,3\n3,NA,4\n4,red,5\n"))
	assert.NilError(t, err)
	assert.Assert(t, !q.IsCategorical(0))
	assert.Assert(t, q.IsCategorical(1))
	assert.DeepEqual(t, q.Levels(1), []string{"blue", "red"})
	assert.DeepEqual(t, q.Col(1)[:2], []float64{1, 0})
	assert.Assert(t, math.IsNaN(q.Col(1)[2]))
	s, ok := q.Level(1, 3)
	assert.Assert(t, ok && s == "red")
	_, ok = q.Level(1, 2)
	assert.Assert(t, !ok)
	_, ok = q.Level(0, 0)
	assert.Assert(t, !ok)

	x := q.Take([]int{1})
	assert.DeepEqual(t, x.Levels(1), []string{"blue", "red"})
	m := q.Matrix([]int{1, 2})
	assert.Assert(t, m.At(0, 0) == 1 && m.At(0, 1) == 2)
}

func Test_WithCategorical(t *testing.T) {
	q, err := New([]string{"a"}, [][]float64{{1, 2, 3}})
	assert.NilError(t, err)
	x, err := q.WithCategorical("c", []string{"z", "", "a"})
	assert.NilError(t, err)
	assert.DeepEqual(t, x.Levels(1), []string{"a", "z"})
	assert.Assert(t, x.Col(1)[0] == 1 && x.Col(1)[2] == 0)
	assert.Assert(t, math.IsNaN(x.Col(1)[1]))
	assert.Assert(t, !q.IsCategorical(0))
	_, err = q.WithCategorical("d", []string{"a"})
	assert.ErrorContains(t, err, "has length 1")
}

func Test_WriteCSV(t *testing.T) {
	q, err := ReadCSV(strings.NewReader("x,color\n1.5,red\nNA,blue\n3,\n"))
	assert.NilError(t, err)
	y, err := q.With("predict", []float64{0.25, 1, 2})
	assert.NilError(t, err)
	b := &strings.Builder{}
	assert.NilError(t, y.WriteCSV(b))
	assert.Assert(t, b.String() == "x,color,predict\n1.5,red,0.25\nNA,blue,1\n3,NA,2\n", b.String())
	z, err := ReadCSV(strings.NewReader(b.String()))
	assert.NilError(t, err)
	assert.DeepEqual(t, z.Levels(1), q.Levels(1))
}

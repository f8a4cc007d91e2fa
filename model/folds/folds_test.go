package folds

import (
	"gotest.tools/assert"
	"math"
	"testing"
)

func Test_Modulo(t *testing.T) {
	a, err := Assign(7, 2, Modulo, 0, nil)
	assert.NilError(t, err)
	assert.DeepEqual(t, a, []int{0, 1, 0, 1, 0, 1, 0})
	train, test := Split(a, 1)
	assert.DeepEqual(t, test, []int{1, 3, 5})
	assert.DeepEqual(t, train, []int{0, 2, 4, 6})
}

func Test_RandomBalanced(t *testing.T) {
	a, err := Assign(100, 3, Random, 42, nil)
	assert.NilError(t, err)
	c := make([]int, 3)
	for _, f := range a {
		c[f]++
	}
	assert.DeepEqual(t, c, []int{34, 33, 33})
	b, _ := Assign(100, 3, Auto, 42, nil)
	assert.DeepEqual(t, a, b)
}

func Test_Stratified(t *testing.T) {
	labels := []float64{0, 0, 0, 0, 1, 1, 1, 1}
	a, err := Assign(8, 2, Stratified, 1, labels)
	assert.NilError(t, err)
	for f := 0; f < 2; f++ {
		_, test := Split(a, f)
		ones := 0
		for _, i := range test {
			ones += int(labels[i])
		}
		assert.Assert(t, ones == 2)
	}
}

func Test_Errors(t *testing.T) {
	_, err := Assign(10, 1, Modulo, 0, nil)
	assert.ErrorContains(t, err, "at least 2")
	_, err = Assign(1, 2, Modulo, 0, nil)
	assert.ErrorContains(t, err, "can't split")
	_, err = ParseAssignment("roundrobin")
	assert.ErrorContains(t, err, "unknown fold assignment")
	a, err := ParseAssignment("modulo")
	assert.NilError(t, err)
	assert.Assert(t, a == Modulo)
}

func Test_StratifiedMissingLabels(t *testing.T) {
	nan := math.NaN()
	labels := []float64{nan, nan, nan, nan, nan, nan, 0, 1, 0, 1}
	a, err := Assign(len(labels), 2, Stratified, 1, labels)
	assert.NilError(t, err)
	c := make([]int, 2)
	m := make([]int, 2)
	for i, f := range a {
		c[f]++
		if math.IsNaN(labels[i]) {
			m[f]++
		}
	}
	assert.DeepEqual(t, c, []int{5, 5})
	assert.DeepEqual(t, m, []int{3, 3})
	assert.Assert(t, a[6] != a[8])
	assert.Assert(t, a[7] != a[9])
}

/*
Package folds implements cross-validation fold assignment
*/
package folds

import (
	"go-ml.dev/pkg/zorros/zorros"
	"math"
	"math/rand"
	"sort"
	"strings"
)

/*
Assignment is a policy of splitting rows to folds
*/
type Assignment int

const (
	Auto Assignment = iota
	Random
	Modulo
	Stratified
)

var names = map[Assignment]string{
	Auto:       "AUTO",
	Random:     "Random",
	Modulo:     "Modulo",
	Stratified: "Stratified",
}

func (a Assignment) String() string {
	if s, ok := names[a]; ok {
		return s
	}
	return "Unknown"
}

/*
ParseAssignment parses assignment name case insensitive, empty string means Auto
*/
func ParseAssignment(s string) (Assignment, error) {
	if s == "" {
		return Auto, nil
	}
	for a, n := range names {
		if strings.EqualFold(n, s) {
			return a, nil
		}
	}
	return Auto, zorros.Errorf("unknown fold assignment `%v`", s)
}

func (a Assignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Assignment) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAssignment(string(b))
	return
}

/*
Assign returns fold index [0,k) for every of n rows.
Labels are used by Stratified assignment only.
*/
func Assign(n, k int, a Assignment, seed int64, labels []float64) ([]int, error) {
	if k < 2 {
		return nil, zorros.Errorf("folds count must be at least 2, got %d", k)
	}
	if n < k {
		return nil, zorros.Errorf("can't split %d rows to %d folds", n, k)
	}
	r := make([]int, n)
	switch a {
	case Modulo:
		for i := range r {
			r[i] = i % k
		}
	case Auto, Random:
		rnd := rand.New(rand.NewSource(seed))
		for i, j := range rnd.Perm(n) {
			r[j] = i % k
		}
	case Stratified:
		if len(labels) != n {
			return nil, zorros.Errorf("stratified assignment needs %d labels, got %d", n, len(labels))
		}
		rnd := rand.New(rand.NewSource(seed))
		classes := map[float64][]int{}
		var missing []int
		for i, l := range labels {
			if math.IsNaN(l) {
				missing = append(missing, i)
			} else {
				classes[l] = append(classes[l], i)
			}
		}
		keys := make([]float64, 0, len(classes))
		for l := range classes {
			keys = append(keys, l)
		}
		sort.Float64s(keys)
		groups := make([][]int, 0, len(keys)+1)
		for _, l := range keys {
			groups = append(groups, classes[l])
		}
		// rows without label are one more class
		groups = append(groups, missing)
		f := 0
		for _, rows := range groups {
			rnd.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
			for _, j := range rows {
				r[j] = f % k
				f++
			}
		}
	default:
		return nil, zorros.Errorf("unsupported fold assignment %v", a)
	}
	return r, nil
}

/*
Split returns train and test rows of the fold
*/
func Split(assignment []int, fold int) (train, test []int) {
	for i, f := range assignment {
		if f == fold {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return
}

package model

import (
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
)

/*
Dataset is an abstraction of some source of a data to feed hungry models
*/
type Dataset struct {
	Source   *tables.Table // training frame
	Test     *tables.Table // optional, equal to Source if nil
	Label    int           // index of the response column
	Features []int         // indices of predictor columns
}

/*
Validate checks columns are present and the label is not a feature
*/
func (ds Dataset) Validate() error {
	if ds.Source == nil {
		return zorros.New("dataset has no source")
	}
	if len(ds.Features) == 0 {
		return zorros.New("dataset has no features")
	}
	w := ds.Source.Width()
	if ds.Label < 0 || ds.Label >= w {
		return zorros.Errorf("label column %d is out of range [0,%d)", ds.Label, w)
	}
	seen := map[int]bool{}
	for _, f := range ds.Features {
		if f < 0 || f >= w {
			return zorros.Errorf("feature column %d is out of range [0,%d)", f, w)
		}
		if f == ds.Label {
			return zorros.Errorf("column `%v` is both a feature and the label", ds.Source.Name(f))
		}
		if seen[f] {
			return zorros.Errorf("column `%v` is repeated in features", ds.Source.Name(f))
		}
		seen[f] = true
	}
	if ds.Test != nil && ds.Test.Width() != w {
		return zorros.Errorf("test frame has %d columns, expected %d", ds.Test.Width(), w)
	}
	return nil
}

/*
TestSource returns test frame or source if test is not specified
*/
func (ds Dataset) TestSource() *tables.Table {
	if ds.Test != nil {
		return ds.Test
	}
	return ds.Source
}

package glm

import (
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/folds"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
	"math"
)

/*
Parameters is an immutable GLM training configuration.
ModelID is any text, it is never validated.
*/
type Parameters struct {
	ModelID                        string           `json:"model_id" yaml:"model_id"`
	Family                         Family           `json:"family" yaml:"family"`
	NFolds                         int              `json:"nfolds" yaml:"nfolds"`
	FoldAssignment                 folds.Assignment `json:"fold_assignment" yaml:"fold_assignment"`
	KeepCrossValidationPredictions bool             `json:"keep_cross_validation_predictions" yaml:"keep_cross_validation_predictions"`
	KeepCrossValidationModels      bool             `json:"keep_cross_validation_models" yaml:"keep_cross_validation_models"`
	X                              []int            `json:"x" yaml:"x"`
	Y                              int              `json:"y" yaml:"y"`
	Lambda                         float64          `json:"lambda" yaml:"lambda"`
	Standardize                    bool             `json:"standardize" yaml:"standardize"`
	UseAllFactorLevels             bool             `json:"use_all_factor_levels" yaml:"use_all_factor_levels"`
	NoIntercept                    bool             `json:"no_intercept" yaml:"no_intercept"`
	MaxIterations                  int              `json:"max_iterations" yaml:"max_iterations"`
	Tolerance                      float64          `json:"tolerance" yaml:"tolerance"`
	Seed                           int64            `json:"seed" yaml:"seed"`
}

const (
	DefaultMaxIterations = 50
	DefaultTolerance     = 1e-6
)

/*
DefaultParameters returns Gaussian GLM parameters without cross-validation
*/
func DefaultParameters() Parameters {
	return Parameters{
		Family:                    Gaussian,
		KeepCrossValidationModels: true,
		Standardize:               true,
		MaxIterations:             DefaultMaxIterations,
		Tolerance:                 DefaultTolerance,
		Seed:                      -1,
	}
}

/*
AllBut returns indices of all frame columns except y
*/
func AllBut(frame *tables.Table, y int) []int {
	x := make([]int, 0, frame.Width())
	for i := 0; i < frame.Width(); i++ {
		if i != y {
			x = append(x, i)
		}
	}
	return x
}

func (p Parameters) dataset(frame *tables.Table) model.Dataset {
	return model.Dataset{Source: frame, Label: p.Y, Features: p.X}
}

/*
Validate checks parameters against the training frame
*/
func (p Parameters) Validate(frame *tables.Table) error {
	if frame == nil {
		return zorros.New("training frame is required")
	}
	if err := p.dataset(frame).Validate(); err != nil {
		return err
	}
	if p.Family < Gaussian || p.Family > Gamma {
		return zorros.Errorf("unsupported family %d", int(p.Family))
	}
	if p.NFolds < 0 || p.NFolds == 1 {
		return zorros.Errorf("nfolds must be 0 or at least 2, got %d", p.NFolds)
	}
	if p.NFolds > frame.Len() {
		return zorros.Errorf("nfolds %d is greater than rows count %d", p.NFolds, frame.Len())
	}
	if p.Lambda < 0 {
		return zorros.Errorf("lambda must be non-negative, got %v", p.Lambda)
	}
	if p.MaxIterations < 0 {
		return zorros.Errorf("max_iterations must be non-negative, got %d", p.MaxIterations)
	}
	if levels := frame.Levels(p.Y); frame.IsCategorical(p.Y) {
		if p.Family != Binomial {
			return zorros.Errorf("categorical response `%v` needs binomial family", frame.Name(p.Y))
		}
		if len(levels) > 2 {
			return zorros.Errorf("binomial response `%v` has %d levels", frame.Name(p.Y), len(levels))
		}
	}
	rows := 0
	for _, y := range frame.Col(p.Y) {
		if math.IsNaN(y) {
			continue
		}
		if err := p.Family.checkResponse(y); err != nil {
			return err
		}
		rows++
	}
	if rows == 0 {
		return zorros.Errorf("response column `%v` has no values", frame.Name(p.Y))
	}
	return nil
}

package glm

import (
	"go-ml.dev/pkg/glm/fu"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/tables"
	"go-ml.dev/pkg/zorros/zorros"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"math"
)

/*
Estimator is a GLM fitted by iteratively reweighted least squares
*/
type Estimator struct {
	Parameters
}

// observed returns the frame rows having the response
func observed(t *tables.Table, label int) *tables.Table {
	rows := make([]int, 0, t.Len())
	for i, y := range t.Col(label) {
		if !math.IsNaN(y) {
			rows = append(rows, i)
		}
	}
	if len(rows) == t.Len() {
		return t
	}
	return t.Take(rows)
}

// solve finds beta of (XᵀWX + λΣw·I)β = XᵀWz, the intercept is the last column and is not penalized
func solve(x *mat.Dense, w, z []float64, lambda float64, intercept bool) ([]float64, error) {
	n, p := x.Dims()
	a := make([]float64, p*p)
	b := make([]float64, p)
	sumw := 0.
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		sumw += w[i]
		for j := 0; j < p; j++ {
			wx := w[i] * row[j]
			b[j] += wx * z[i]
			for k := j; k < p; k++ {
				a[j*p+k] += wx * row[k]
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := 0; k < j; k++ {
			a[j*p+k] = a[k*p+j]
		}
	}
	penalized := p
	if intercept {
		penalized = p - 1
	}
	for j := 0; j < penalized; j++ {
		a[j*p+j] += lambda * sumw
	}
	beta := mat.NewVecDense(p, nil)
	for jitter := 0.; ; {
		sym := mat.NewSymDense(p, append([]float64(nil), a...))
		for j := 0; j < penalized; j++ {
			sym.SetSym(j, j, sym.At(j, j)+jitter)
		}
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			if err := chol.SolveVecTo(beta, mat.NewVecDense(p, b)); err == nil {
				break
			}
		}
		if jitter > 0 {
			return nil, zorros.New("gram matrix is singular, try to set lambda")
		}
		jitter = 1e-8 * fu.Fnzd(sumw, 1)
	}
	return beta.RawVector().Data, nil
}

func (e Estimator) linearPredictor(x *mat.Dense, beta []float64) []float64 {
	n, _ := x.Dims()
	eta := mat.NewVecDense(n, nil)
	eta.MulVec(x, mat.NewVecDense(len(beta), beta))
	return eta.RawVector().Data
}

func (e Estimator) response(eta []float64) []float64 {
	mu := make([]float64, len(eta))
	for i, v := range eta {
		mu[i] = e.Family.linkInv(v)
	}
	return mu
}

/*
Feed binds the estimator to a dataset
*/
func (e Estimator) Feed(ds model.Dataset) model.FatModel {
	return func(workout model.Workout) (*model.Report, error) {
		return e.fit(ds, workout)
	}
}

func (e Estimator) fit(ds model.Dataset, w model.Workout) (*model.Report, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	f := e.Family
	intercept := !e.NoIntercept
	train := observed(ds.Source, ds.Label)
	test := observed(ds.TestSource(), ds.Label)
	if train.Len() == 0 {
		return nil, zorros.Errorf("no rows with response `%v`", ds.Source.Name(ds.Label))
	}
	if test.Len() == 0 {
		test = train
	}
	di, err := newDataInfo(train, ds.Features, e.Standardize, intercept, e.UseAllFactorLevels)
	if err != nil {
		return nil, err
	}
	x, err := di.design(train, ds.Features)
	if err != nil {
		return nil, err
	}
	xt, err := di.design(test, ds.Features)
	if err != nil {
		return nil, err
	}
	y := train.Col(ds.Label)
	yt := test.Col(ds.Label)
	tol := fu.Fnzd(e.Tolerance, DefaultTolerance)

	mu := make([]float64, len(y))
	eta := make([]float64, len(y))
	init := f.initMu(stat.Mean(y, nil))
	for i := range mu {
		mu[i] = init
		eta[i] = f.link(init)
	}
	devOld := deviance(f, y, mu)
	z := make([]float64, len(y))
	wt := make([]float64, len(y))

	for w != nil {
		if err := w.Context().Err(); err != nil {
			return nil, xerrors.Errorf("training aborted: %w", err)
		}
		for i := range y {
			d := f.linkDeriv(mu[i])
			z[i] = eta[i] + (y[i]-mu[i])*d
			wt[i] = 1 / (f.variance(mu[i]) * d * d)
		}
		beta, err := solve(x, wt, z, e.Lambda, intercept)
		if err != nil {
			return nil, err
		}
		eta = e.linearPredictor(x, beta)
		mu = e.response(eta)
		dev := deviance(f, y, mu)
		converged := f == Gaussian || math.Abs(dev-devOld)/(math.Abs(dev)+0.1) < tol
		devOld = dev

		muTest := e.response(e.linearPredictor(xt, beta))
		trainM := model.Evaluate(w.Iteration(), model.TrainSubset, y, mu, f.Deviance)
		testM := model.Evaluate(w.Iteration(), model.TestSubset, yt, muTest, f.Deviance)
		coefs := di.coefficients(f, beta)
		report, done, err := w.Complete(coefs, trainM, testM, converged)
		if err != nil {
			return nil, err
		}
		if done {
			return report, nil
		}
		w = w.Next()
	}
	return nil, zorros.New("training is interrupted")
}

func deviance(f Family, y, mu []float64) float64 {
	d := 0.
	for i, v := range y {
		d += f.Deviance(v, mu[i])
	}
	return d
}

package glm

import (
	"go-ml.dev/pkg/zorros/zorros"
	"math"
	"strings"
)

/*
Family is a distribution family of the response
*/
type Family int

const (
	Gaussian Family = iota
	Binomial
	Poisson
	Gamma
)

var familyNames = []string{"gaussian", "binomial", "poisson", "gamma"}

func (f Family) String() string {
	if int(f) < len(familyNames) && f >= 0 {
		return familyNames[f]
	}
	return "unknown"
}

/*
ParseFamily parses family name case insensitive, empty string means Gaussian
*/
func ParseFamily(s string) (Family, error) {
	if s == "" || strings.EqualFold(s, "AUTO") {
		return Gaussian, nil
	}
	for i, n := range familyNames {
		if strings.EqualFold(n, s) {
			return Family(i), nil
		}
	}
	return Gaussian, zorros.Errorf("unknown family `%v`", s)
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(b []byte) (err error) {
	*f, err = ParseFamily(string(b))
	return
}

const muEpsilon = 1e-10

// link maps mean to linear predictor, identity for gaussian, logit for binomial and log otherwise
func (f Family) link(mu float64) float64 {
	switch f {
	case Gaussian:
		return mu
	case Binomial:
		return math.Log(mu / (1 - mu))
	default:
		return math.Log(mu)
	}
}

func (f Family) linkInv(eta float64) float64 {
	switch f {
	case Gaussian:
		return eta
	case Binomial:
		mu := 1 / (1 + math.Exp(-eta))
		return math.Min(math.Max(mu, muEpsilon), 1-muEpsilon)
	default:
		return math.Max(math.Exp(math.Min(eta, 700)), muEpsilon)
	}
}

// linkDeriv is d(eta)/d(mu)
func (f Family) linkDeriv(mu float64) float64 {
	switch f {
	case Gaussian:
		return 1
	case Binomial:
		return 1 / (mu * (1 - mu))
	default:
		return 1 / mu
	}
}

func (f Family) variance(mu float64) float64 {
	switch f {
	case Gaussian:
		return 1
	case Binomial:
		return mu * (1 - mu)
	case Poisson:
		return mu
	default:
		return mu * mu
	}
}

func ylogy(y, mu float64) float64 {
	if y == 0 {
		return 0
	}
	return y * math.Log(y/mu)
}

/*
Deviance is the unit deviance of the family
*/
func (f Family) Deviance(y, mu float64) float64 {
	switch f {
	case Gaussian:
		return (y - mu) * (y - mu)
	case Binomial:
		mu = math.Min(math.Max(mu, muEpsilon), 1-muEpsilon)
		return 2 * (ylogy(y, mu) + ylogy(1-y, 1-mu))
	case Poisson:
		return 2 * (ylogy(y, mu) - (y - mu))
	default:
		return 2 * (-math.Log(y/mu) + (y-mu)/mu)
	}
}

// initMu is the starting mean for IRLS
func (f Family) initMu(mean float64) float64 {
	switch f {
	case Binomial:
		return math.Min(math.Max(mean, 0.01), 0.99)
	case Poisson, Gamma:
		return math.Max(mean, muEpsilon)
	default:
		return mean
	}
}

func (f Family) checkResponse(y float64) error {
	switch f {
	case Binomial:
		if y != 0 && y != 1 {
			return zorros.Errorf("binomial response must be 0 or 1, got %v", y)
		}
	case Poisson:
		if y < 0 {
			return zorros.Errorf("poisson response must be non-negative, got %v", y)
		}
	case Gamma:
		if y <= 0 {
			return zorros.Errorf("gamma response must be positive, got %v", y)
		}
	}
	return nil
}

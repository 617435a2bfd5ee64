package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"keeling-pipeline/internal/models"
)

// NormalitySignificance is the p-value above which residuals are reported normal
const NormalitySignificance = 0.05

// minNormalTestSize is the smallest sample the skewness test accepts
const minNormalTestSize = 8

// NormalTest runs the D'Agostino-Pearson omnibus test on the defined values.
// K² = Zs² + Zk² is compared against a chi-squared distribution with 2 degrees of freedom.
func NormalTest(values []float64) (*models.NormalityResult, error) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x = append(x, v)
		}
	}
	n := len(x)
	if n < minNormalTestSize {
		return nil, &models.InsufficientDataError{Operation: "normality test", Required: minNormalTestSize, Got: n}
	}

	mean, std := stat.MeanStdDev(x, nil)

	m2 := stat.Moment(2, x, nil)
	m3 := stat.Moment(3, x, nil)
	m4 := stat.Moment(4, x, nil)

	zs := skewTestZ(m3/math.Pow(m2, 1.5), float64(n))
	zk := kurtosisTestZ(m4/(m2*m2), float64(n))

	k2 := zs*zs + zk*zk
	p := distuv.ChiSquared{K: 2}.Survival(k2)

	return &models.NormalityResult{
		Statistic: k2,
		PValue:    p,
		IsNormal:  p > NormalitySignificance,
		Mean:      mean,
		StdDev:    std,
		N:         n,
	}, nil
}

// skewTestZ transforms the sample skewness to an approximately standard normal score
func skewTestZ(skew, n float64) float64 {
	y := skew * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisTestZ transforms the sample (Pearson) kurtosis to an approximately standard normal score
func kurtosisTestZ(b2, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}

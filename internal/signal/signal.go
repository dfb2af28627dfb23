// ABOUTME: Turns a parsed measurement series into an average and smoothed curve
// ABOUTME: Threshold filter, mean of retained samples, Savitzky-Golay smoothing

// Package signal processes catalyst measurement series.
//
// Processing is three steps in a fixed order: drop samples from before the
// stream stabilized (time on stream < 1 h), average the retained raw DoDH
// values, then smooth the retained curve for display with a Savitzky-Golay
// filter (window 11, polynomial order 2). The average is always computed from
// the unsmoothed values; smoothing exists only to make the plotted curve
// readable.
package signal

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Filter parameters. WindowLength samples are needed for one full smoothing
// window, so it is also the minimum number of retained samples.
const (
	MinTimeOnStream = 1.0 // hours
	WindowLength    = 11
	PolyOrder       = 2
)

// Processing errors
var (
	ErrEmptyData        = errors.New("no samples at or past the time-on-stream threshold")
	ErrInsufficientData = errors.New("not enough samples to smooth")
)

// Processed is the outcome of one processing run.
type Processed struct {
	Time     []float64 // retained sample times, input order
	Smoothed []float64 // smoothed DoDH, same length as Time
	Average  float64   // mean of the retained unsmoothed DoDH
}

// Process filters the series to samples with time >= MinTimeOnStream,
// averages the retained raw DoDH, and smooths the retained curve.
// Returns ErrEmptyData when nothing survives the filter and
// ErrInsufficientData when fewer than WindowLength samples do.
func Process(timeOnStream, dodh []float64) (*Processed, error) {
	if len(timeOnStream) != len(dodh) {
		return nil, fmt.Errorf("series length mismatch: %d times, %d values", len(timeOnStream), len(dodh))
	}

	var keptTime, keptDoDH []float64
	for i, ts := range timeOnStream {
		if ts >= MinTimeOnStream {
			keptTime = append(keptTime, ts)
			keptDoDH = append(keptDoDH, dodh[i])
		}
	}

	if len(keptDoDH) == 0 {
		return nil, ErrEmptyData
	}

	average := stat.Mean(keptDoDH, nil)

	if len(keptDoDH) < WindowLength {
		return nil, fmt.Errorf("%w: have %d samples past %.1f h, need at least %d",
			ErrInsufficientData, len(keptDoDH), MinTimeOnStream, WindowLength)
	}

	smoothed, err := savitzkyGolay(keptDoDH, WindowLength, PolyOrder)
	if err != nil {
		return nil, fmt.Errorf("smoothing series: %w", err)
	}

	return &Processed{
		Time:     keptTime,
		Smoothed: smoothed,
		Average:  average,
	}, nil
}

// savitzkyGolay smooths y with a window-sized least-squares polynomial fit.
// Interior points use the standard convolution weights; the first and last
// half-window are filled by fitting a polynomial to the first/last full
// window and evaluating it at the edge positions, so the output keeps the
// input length without padding artifacts.
func savitzkyGolay(y []float64, window, order int) ([]float64, error) {
	n := len(y)
	if n < window {
		return nil, fmt.Errorf("window %d exceeds series length %d", window, n)
	}
	half := window / 2

	weights, err := convolutionWeights(window, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		var sum float64
		for k, w := range weights {
			sum += w * y[i-half+k]
		}
		out[i] = sum
	}

	// Left edge: fit the first full window, evaluate at positions 0..half-1.
	leftCoef, err := fitPoly(y[:window], order)
	if err != nil {
		return nil, err
	}
	for i := 0; i < half; i++ {
		out[i] = evalPoly(leftCoef, float64(i))
	}

	// Right edge: fit the last full window, evaluate at its trailing positions.
	rightCoef, err := fitPoly(y[n-window:], order)
	if err != nil {
		return nil, err
	}
	for i := 0; i < half; i++ {
		out[n-half+i] = evalPoly(rightCoef, float64(window-half+i))
	}

	return out, nil
}

// convolutionWeights returns the least-squares smoothing weights for the
// window center: the first row of (AᵀA)⁻¹Aᵀ for the Vandermonde matrix A
// over x = -half..half, which evaluates the fitted polynomial at x = 0.
func convolutionWeights(window, order int) ([]float64, error) {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var ataInv mat.Dense
	if err := ataInv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("inverting normal equations: %w", err)
	}

	var proj mat.Dense
	proj.Mul(&ataInv, a.T())

	return mat.Row(nil, 0, &proj), nil
}

// fitPoly least-squares fits a polynomial of the given order to y over
// implicit x = 0..len(y)-1, returning coefficients lowest order first.
func fitPoly(y []float64, order int) ([]float64, error) {
	n := len(y)

	a := mat.NewDense(n, order+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= float64(i)
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("fitting edge polynomial: %w", err)
	}

	out := make([]float64, order+1)
	for j := range out {
		out[j] = coef.AtVec(j)
	}
	return out, nil
}

// evalPoly evaluates coefficients (lowest order first) at x.
func evalPoly(coef []float64, x float64) float64 {
	var sum float64
	for j := len(coef) - 1; j >= 0; j-- {
		sum = sum*x + coef[j]
	}
	return sum
}

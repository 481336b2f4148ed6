package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSimpleImputer_FillsNaN(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, nan,
		nan, 30,
		4, 20,
	})

	imputer := NewSimpleImputer()
	if err := imputer.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	out, err := imputer.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// Column means over non-NaN entries: (1+2+4)/3 and (10+30+20)/3.
	if got := out.At(2, 0); math.Abs(got-7.0/3.0) > 1e-10 {
		t.Errorf("imputed (2,0) = %v, want %v", got, 7.0/3.0)
	}
	if got := out.At(1, 1); math.Abs(got-20) > 1e-10 {
		t.Errorf("imputed (1,1) = %v, want 20", got)
	}

	// Observed values pass through untouched.
	if got := out.At(0, 0); got != 1 {
		t.Errorf("observed (0,0) = %v, want 1", got)
	}
}

func TestSimpleImputer_AllMissingFeature(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(2, 2, []float64{
		1, nan,
		2, nan,
	})

	imputer := NewSimpleImputer()
	if err := imputer.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	out, err := imputer.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if got := out.At(i, 1); got != 0 {
			t.Errorf("all-missing feature row %d = %v, want 0", i, got)
		}
	}
}

func TestSimpleImputer_NotFitted(t *testing.T) {
	imputer := NewSimpleImputer()
	if _, err := imputer.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("Transform() before Fit() should fail")
	}
}

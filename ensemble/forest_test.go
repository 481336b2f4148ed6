package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func stepData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n)
		X.Set(i, 0, v)
		if v < 0.5 {
			y.Set(i, 0, 20)
		} else {
			y.Set(i, 0, 60)
		}
	}
	return X, y
}

func TestRandomForestRegressor_LearnsStepFunction(t *testing.T) {
	X, y := stepData(100)

	rf := NewRandomForestRegressor(WithNEstimators(20))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := rf.Predict(mat.NewDense(2, 1, []float64{0.2, 0.8}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if got := pred.At(0, 0); math.Abs(got-20) > 3 {
		t.Errorf("prediction at 0.2 = %v, want ~20", got)
	}
	if got := pred.At(1, 0); math.Abs(got-60) > 3 {
		t.Errorf("prediction at 0.8 = %v, want ~60", got)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.9 {
		t.Errorf("Score() = %v, want > 0.9", score)
	}
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	n := 40
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
		y.Set(i, 0, X.At(i, 0)+0.5*X.At(i, 1))
	}

	a := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(7))
	b := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(7))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predA, _ := a.Predict(X)
	predB, _ := b.Predict(X)
	for i := 0; i < n; i++ {
		if predA.At(i, 0) != predB.At(i, 0) {
			t.Fatalf("same seed gave different predictions at row %d: %v vs %v",
				i, predA.At(i, 0), predB.At(i, 0))
		}
	}
}

func TestRandomForestRegressor_MaxDepthOne(t *testing.T) {
	X, y := stepData(50)

	rf := NewRandomForestRegressor(WithNEstimators(5), WithMaxDepth(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Depth-1 stumps still separate the two plateaus.
	pred, err := rf.Predict(mat.NewDense(2, 1, []float64{0.1, 0.9}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) >= pred.At(1, 0) {
		t.Errorf("stump predictions not ordered: %v vs %v", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestRandomForestRegressor_FeaturesPerSplit(t *testing.T) {
	tests := []struct {
		mode      string
		nFeatures int
		want      int
		wantErr   bool
	}{
		{MaxFeaturesAll, 16, 16, false},
		{MaxFeaturesSqrt, 16, 4, false},
		{MaxFeaturesLog2, 16, 4, false},
		{MaxFeaturesSqrt, 1, 1, false},
		{"third", 16, 0, true},
	}

	for _, tt := range tests {
		rf := NewRandomForestRegressor(WithMaxFeatures(tt.mode))
		got, err := rf.featuresPerSplit(tt.nFeatures)
		if (err != nil) != tt.wantErr {
			t.Errorf("featuresPerSplit(%q, %d) error = %v, wantErr %v", tt.mode, tt.nFeatures, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("featuresPerSplit(%q, %d) = %d, want %d", tt.mode, tt.nFeatures, got, tt.want)
		}
	}
}

func TestRandomForestRegressor_Clone(t *testing.T) {
	rf := NewRandomForestRegressor(
		WithNEstimators(50),
		WithMaxDepth(8),
		WithMaxFeatures(MaxFeaturesSqrt),
		WithRandomState(3),
	)
	X, y := stepData(20)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	clone := rf.Clone()
	if clone.IsFitted() {
		t.Error("Clone() should be unfitted")
	}
	if clone.NEstimators != 50 || clone.MaxDepth != 8 ||
		clone.MaxFeatures != MaxFeaturesSqrt || clone.RandomState != 3 {
		t.Errorf("Clone() lost hyperparameters: %+v", clone)
	}
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	rf := NewRandomForestRegressor()

	if _, err := rf.Predict(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("Predict() before Fit() should fail")
	}

	if err := rf.Fit(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil)); err == nil {
		t.Error("Fit() with mismatched rows should fail")
	}

	bad := NewRandomForestRegressor(WithNEstimators(0))
	X, y := stepData(10)
	if err := bad.Fit(X, y); err == nil {
		t.Error("Fit() with zero trees should fail")
	}
}

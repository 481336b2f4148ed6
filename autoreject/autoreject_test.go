package autoreject

import (
	"bytes"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"testing"

	"github.com/neurobench/brainage/pkg/errors"
)

// syntheticEpochs builds nClean low-amplitude epochs plus nBad epochs with a
// large artifact on one channel.
func syntheticEpochs(nClean, nBad int) *Epochs {
	rng := rand.New(rand.NewPCG(5, 0))
	nChannels, nSamples := 3, 50

	e := &Epochs{
		Subject:  "sub-01",
		SFreq:    100,
		Channels: []string{"Cz", "Pz", "Oz"},
		EventID:  map[string]int{"rest": 1},
	}

	for i := 0; i < nClean+nBad; i++ {
		epoch := make([][]float64, nChannels)
		for c := range epoch {
			epoch[c] = make([]float64, nSamples)
			for s := range epoch[c] {
				epoch[c][s] = math.Sin(float64(s)/5) + 0.1*rng.NormFloat64()
			}
		}
		if i >= nClean {
			epoch[0][nSamples/2] += 100
		}
		e.Data = append(e.Data, epoch)
	}
	return e
}

func TestPtp(t *testing.T) {
	epoch := [][]float64{
		{0, 1, -1, 0.5},
		{0, 0.2, 0.1, 0},
	}
	if got := ptp(epoch); got != 2 {
		t.Errorf("ptp() = %v, want 2", got)
	}
}

func TestAutoReject_DropsArtifactEpochs(t *testing.T) {
	e := syntheticEpochs(30, 4)

	ar := NewAutoReject()
	cleaned, err := ar.FitTransform(e)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	if cleaned.NEpochs() != 30 {
		t.Errorf("kept %d epochs, want 30", cleaned.NEpochs())
	}
	if math.IsInf(ar.Threshold, 1) {
		t.Error("threshold not selected")
	}

	// The artifact amplitude sits far above the threshold.
	if ar.Threshold > 50 {
		t.Errorf("threshold = %v, want below the artifact amplitude", ar.Threshold)
	}
}

func TestAutoReject_FewEpochsKeepsAll(t *testing.T) {
	var buf bytes.Buffer
	errors.SetWarnOutput(&buf)
	defer errors.SetWarnOutput(os.Stderr)

	e := syntheticEpochs(3, 0)

	ar := NewAutoReject()
	cleaned, err := ar.FitTransform(e)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	if cleaned.NEpochs() != 3 {
		t.Errorf("kept %d epochs, want all 3", cleaned.NEpochs())
	}
	if !math.IsInf(ar.Threshold, 1) {
		t.Errorf("threshold = %v, want +Inf when below the fold count", ar.Threshold)
	}
	if !strings.Contains(buf.String(), "AutoReject") || !strings.Contains(buf.String(), "keeping all epochs") {
		t.Errorf("no keep-all warning emitted, got %q", buf.String())
	}
}

func TestAutoReject_NotFitted(t *testing.T) {
	ar := NewAutoReject()
	if _, err := ar.Transform(syntheticEpochs(5, 0)); err == nil {
		t.Error("Transform() before Fit() should fail")
	}
}

func TestAutoReject_EmptyEpochs(t *testing.T) {
	ar := NewAutoReject()
	if err := ar.Fit(&Epochs{}); err == nil {
		t.Error("Fit() on empty epochs should fail")
	}
}

func TestSetAverageReference(t *testing.T) {
	e := &Epochs{
		Data: [][][]float64{{
			{1, 2},
			{3, 4},
			{5, 6},
		}},
	}

	SetAverageReference(e)

	// Each sample sums to zero across channels afterwards.
	for s := 0; s < 2; s++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += e.Data[0][c][s]
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("sample %d channel sum = %v, want 0", s, sum)
		}
	}
	if e.Data[0][0][0] != -2 {
		t.Errorf("referenced value = %v, want -2", e.Data[0][0][0])
	}
}

func TestEpochs_PickChannels(t *testing.T) {
	e := &Epochs{
		Channels: []string{"Fp1", "Cz", "Oz"},
		Data: [][][]float64{{
			{1, 1},
			{2, 2},
			{3, 3},
		}},
	}

	e.PickChannels([]string{"Cz", "Oz", "ECG"})

	if len(e.Channels) != 2 || e.Channels[0] != "Cz" || e.Channels[1] != "Oz" {
		t.Fatalf("Channels = %v, want [Cz Oz]", e.Channels)
	}
	if e.Data[0][0][0] != 2 || e.Data[0][1][0] != 3 {
		t.Errorf("picked data = %v, want rows for Cz and Oz", e.Data[0])
	}
}

func TestEpochs_HasAnyCondition(t *testing.T) {
	e := &Epochs{EventID: map[string]int{"eyes/open": 1}}

	if !e.HasAnyCondition([]string{"eyes/closed", "eyes/open"}) {
		t.Error("HasAnyCondition() = false, want true")
	}
	if e.HasAnyCondition([]string{"rest"}) {
		t.Error("HasAnyCondition() = true, want false")
	}
}

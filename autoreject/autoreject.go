// Package autoreject implements peak-to-peak artifact rejection for epoched
// recordings. A global rejection threshold is selected by cross-validation:
// candidate thresholds are scored by how well the mean of the epochs they
// keep matches the median signal of held-out epochs. Cleaned epochs are
// re-referenced to the channel average afterwards.
package autoreject

import (
	"fmt"
	"math"
	"sort"

	"github.com/neurobench/brainage/modelselection"
	"github.com/neurobench/brainage/pkg/errors"
)

// Epochs holds one subject's epoched recording: data[epoch][channel][sample].
type Epochs struct {
	Subject  string         `json:"subject"`
	SFreq    float64        `json:"sfreq"`
	Channels []string       `json:"channels"`
	EventID  map[string]int `json:"event_id"`
	Data     [][][]float64  `json:"data"`
}

// NEpochs returns the number of epochs.
func (e *Epochs) NEpochs() int {
	return len(e.Data)
}

// HasAnyCondition reports whether any of the named conditions appears in the
// epochs' event table.
func (e *Epochs) HasAnyCondition(conditions []string) bool {
	for _, cond := range conditions {
		if _, ok := e.EventID[cond]; ok {
			return true
		}
	}
	return false
}

// PickChannels keeps only the named channels, in their order of appearance.
// Unknown names are ignored.
func (e *Epochs) PickChannels(names []string) {
	if len(names) == 0 {
		return
	}

	keep := make([]int, 0, len(names))
	kept := make([]string, 0, len(names))
	for i, ch := range e.Channels {
		for _, want := range names {
			if ch == want {
				keep = append(keep, i)
				kept = append(kept, ch)
				break
			}
		}
	}

	for ep := range e.Data {
		picked := make([][]float64, len(keep))
		for k, idx := range keep {
			picked[k] = e.Data[ep][idx]
		}
		e.Data[ep] = picked
	}
	e.Channels = kept
}

// AutoReject selects a global peak-to-peak rejection threshold by
// cross-validation and drops epochs exceeding it.
type AutoReject struct {
	// NThresholds is the number of candidate thresholds drawn from the
	// observed peak-to-peak distribution.
	NThresholds int

	// CV is the number of cross-validation folds used for selection.
	CV int

	// Threshold is the selected peak-to-peak threshold after Fit.
	Threshold float64

	fitted bool
}

// NewAutoReject creates an AutoReject with 20 candidate thresholds and
// 5-fold selection.
func NewAutoReject() *AutoReject {
	return &AutoReject{NThresholds: 20, CV: 5}
}

// ptp returns the largest peak-to-peak amplitude across channels of one
// epoch.
func ptp(epoch [][]float64) float64 {
	maxPtp := 0.0
	for _, channel := range epoch {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range channel {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if d := hi - lo; d > maxPtp {
			maxPtp = d
		}
	}
	return maxPtp
}

// Fit selects the rejection threshold on the given epochs.
func (ar *AutoReject) Fit(e *Epochs) error {
	n := e.NEpochs()
	if n == 0 {
		return errors.NewModelError("AutoReject.Fit", "empty data", errors.ErrEmptyData)
	}
	if n < ar.CV {
		// Too few epochs for selection; keep everything.
		errors.Warn(errors.NewSelectionWarning("AutoReject",
			fmt.Sprintf("%d epochs is fewer than %d folds, keeping all epochs", n, ar.CV)))
		ar.Threshold = math.Inf(1)
		ar.fitted = true
		return nil
	}

	ptps := make([]float64, n)
	for i, epoch := range e.Data {
		ptps[i] = ptp(epoch)
	}

	candidates := ar.candidates(ptps)
	folds := modelselection.NewKFold(ar.CV, true, 42).SplitN(n)

	bestThreshold := math.Inf(1)
	bestScore := math.Inf(1)

	for _, threshold := range candidates {
		score := 0.0
		valid := true

		for _, fold := range folds {
			kept := make([]int, 0, len(fold.TrainIndices))
			for _, i := range fold.TrainIndices {
				if ptps[i] <= threshold {
					kept = append(kept, i)
				}
			}
			if len(kept) == 0 {
				valid = false
				break
			}

			score += rmse(meanSignal(e.Data, kept), medianSignal(e.Data, fold.TestIndices))
		}

		if valid && score < bestScore {
			bestScore = score
			bestThreshold = threshold
		}
	}

	ar.Threshold = bestThreshold
	ar.fitted = true
	return nil
}

// candidates draws NThresholds evenly spaced values covering the observed
// peak-to-peak range.
func (ar *AutoReject) candidates(ptps []float64) []float64 {
	sorted := make([]float64, len(ptps))
	copy(sorted, ptps)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []float64{hi}
	}

	out := make([]float64, ar.NThresholds)
	step := (hi - lo) / float64(ar.NThresholds-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Transform drops epochs whose peak-to-peak amplitude exceeds the selected
// threshold.
func (ar *AutoReject) Transform(e *Epochs) (*Epochs, error) {
	if !ar.fitted {
		return nil, errors.NewNotFittedError("AutoReject", "Transform")
	}

	out := &Epochs{
		Subject:  e.Subject,
		SFreq:    e.SFreq,
		Channels: e.Channels,
		EventID:  e.EventID,
	}
	for _, epoch := range e.Data {
		if ptp(epoch) <= ar.Threshold {
			out.Data = append(out.Data, epoch)
		}
	}

	if len(out.Data) == 0 {
		return nil, errors.Newf("autoreject: all %d epochs of %s exceed threshold", e.NEpochs(), e.Subject)
	}
	return out, nil
}

// FitTransform fits the threshold and drops bad epochs in one step.
func (ar *AutoReject) FitTransform(e *Epochs) (*Epochs, error) {
	if err := ar.Fit(e); err != nil {
		return nil, err
	}
	return ar.Transform(e)
}

// SetAverageReference subtracts the across-channel mean from every sample.
// The benchmarks compare datasets with different native references, so all
// epochs are mapped to the average reference after rejection.
func SetAverageReference(e *Epochs) {
	for _, epoch := range e.Data {
		if len(epoch) == 0 {
			continue
		}
		nSamples := len(epoch[0])
		for s := 0; s < nSamples; s++ {
			mean := 0.0
			for _, channel := range epoch {
				mean += channel[s]
			}
			mean /= float64(len(epoch))
			for _, channel := range epoch {
				channel[s] -= mean
			}
		}
	}
}

func meanSignal(data [][][]float64, indices []int) [][]float64 {
	first := data[indices[0]]
	out := make([][]float64, len(first))
	for c := range first {
		out[c] = make([]float64, len(first[c]))
	}

	for _, i := range indices {
		for c := range data[i] {
			for s := range data[i][c] {
				out[c][s] += data[i][c][s]
			}
		}
	}
	for c := range out {
		for s := range out[c] {
			out[c][s] /= float64(len(indices))
		}
	}
	return out
}

func medianSignal(data [][][]float64, indices []int) [][]float64 {
	first := data[indices[0]]
	out := make([][]float64, len(first))
	values := make([]float64, len(indices))

	for c := range first {
		out[c] = make([]float64, len(first[c]))
		for s := range first[c] {
			for k, i := range indices {
				values[k] = data[i][c][s]
			}
			sort.Float64s(values)
			mid := len(values) / 2
			if len(values)%2 == 1 {
				out[c][s] = values[mid]
			} else {
				out[c][s] = (values[mid-1] + values[mid]) / 2
			}
		}
	}
	return out
}

func rmse(a, b [][]float64) float64 {
	sum := 0.0
	count := 0
	for c := range a {
		for s := range a[c] {
			diff := a[c][s] - b[c][s]
			sum += diff * diff
			count++
		}
	}
	return math.Sqrt(sum / float64(count))
}

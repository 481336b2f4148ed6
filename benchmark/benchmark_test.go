package benchmark

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurobench/brainage/pkg/errors"
)

func TestIsKnown(t *testing.T) {
	for _, name := range Names {
		assert.True(t, IsKnown(name), name)
	}
	assert.True(t, IsKnown(Deep))
	assert.False(t, IsKnown("svm"))
}

// seedDataset lays out a minimal tuab tree under a temporary data root:
// participants table plus feature logs and stores (fb_covs, source_power,
// handcrafted) for nSubjects subjects.
func seedDataset(t *testing.T, nSubjects int) {
	t.Helper()

	root := t.TempDir()
	t.Setenv("BRAINAGE_DATA_ROOT", root)

	bids := filepath.Join(root, "tuab")
	deriv := filepath.Join(bids, "derivatives")
	require.NoError(t, os.MkdirAll(deriv, 0o755))

	var participants strings.Builder
	participants.WriteString("participant_id\tage\n")
	logs := map[string]*strings.Builder{}
	stores := map[string]*strings.Builder{}
	for _, label := range []string{"fb_covs", "source_power", "handcrafted"} {
		logs[label] = &strings.Builder{}
		logs[label].WriteString("ok,subject\n")
		stores[label] = &strings.Builder{}
		stores[label].WriteString("{")
	}

	for i := 0; i < nSubjects; i++ {
		id := fmt.Sprintf("sub-%03d", i)
		fmt.Fprintf(&participants, "%s\t%d\n", id, 20+3*i)
		for _, log := range logs {
			fmt.Fprintf(log, "OK,%s\n", id)
		}
		if i > 0 {
			for _, store := range stores {
				store.WriteString(",")
			}
		}

		// Seven band covariances per subject, 2×2, SPD by construction.
		covs := stores["fb_covs"]
		fmt.Fprintf(covs, "%q: {\"covs\": [", id)
		for b := 0; b < 7; b++ {
			if b > 0 {
				covs.WriteString(",")
			}
			d := 1.0 + 0.1*float64(i) + 0.2*float64(b)
			fmt.Fprintf(covs, "[[%g, 0.1], [0.1, %g]]", d, d+0.5)
		}
		covs.WriteString("]}")

		// Seven bands of three positive source powers.
		src := stores["source_power"]
		fmt.Fprintf(src, "%q: [", id)
		for b := 0; b < 7; b++ {
			if b > 0 {
				src.WriteString(",")
			}
			p := 1.0 + 0.3*float64(i) + 0.05*float64(b)
			fmt.Fprintf(src, "[%g, %g, %g]", p, p+0.2, p+0.4)
		}
		src.WriteString("]")

		// Two epochs of four features; the second feature of the first
		// subject is missing in every epoch.
		hand := stores["handcrafted"]
		f := float64(i)
		if i == 0 {
			fmt.Fprintf(hand, `%q: {"feats": [[%g, null, 0.5, 1.2], [%g, null, 0.6, 1.3]]}`,
				id, f, f+0.1)
		} else {
			fmt.Fprintf(hand, `%q: {"feats": [[%g, %g, 0.5, 1.2], [%g, %g, 0.6, 1.3]]}`,
				id, f, 1.5+0.1*f, f+0.1, 1.6+0.1*f)
		}
	}

	require.NoError(t, os.WriteFile(filepath.Join(bids, "participants.tsv"),
		[]byte(participants.String()), 0o644))
	for label, log := range logs {
		require.NoError(t, os.WriteFile(
			filepath.Join(deriv, "feature_"+label+"_rest-log.csv"),
			[]byte(log.String()), 0o644))
		stores[label].WriteString("}")
		require.NoError(t, os.WriteFile(
			filepath.Join(deriv, "features_"+label+"_rest.json"),
			[]byte(stores[label].String()), 0o644))
	}
}

func TestLoad_Dummy(t *testing.T) {
	seedDataset(t, 12)

	data, err := Load("tuab", Dummy, "")
	require.NoError(t, err)

	r, _ := data.X.Dims()
	assert.Equal(t, 12, r)
	assert.InDelta(t, 20.0, data.Y.At(0, 0), 1e-12)
	assert.InDelta(t, 53.0, data.Y.At(11, 0), 1e-12)

	est := data.NewModel()
	require.NoError(t, est.Fit(data.X, data.Y))
	pred, err := est.Predict(data.X)
	require.NoError(t, err)
	// Mean strategy predicts the mean age everywhere.
	assert.InDelta(t, 36.5, pred.At(0, 0), 1e-9)
}

func TestLoad_FilterBankRiemann(t *testing.T) {
	seedDataset(t, 12)

	data, err := Load("tuab", FilterBankRieman, "")
	require.NoError(t, err)

	r, c := data.X.Dims()
	assert.Equal(t, 12, r)
	// Seven bands of flattened 2×2 covariances.
	assert.Equal(t, 7*2*2, c)

	est := data.NewModel()
	require.NoError(t, est.Fit(data.X, data.Y))
	pred, err := est.Predict(data.X)
	require.NoError(t, err)
	pr, _ := pred.Dims()
	assert.Equal(t, 12, pr)
}

func TestLoad_FilterBankSource(t *testing.T) {
	seedDataset(t, 12)

	data, err := Load("tuab", FilterBankSource, "")
	require.NoError(t, err)

	r, c := data.X.Dims()
	assert.Equal(t, 12, r)
	// Seven bands of three source powers each.
	assert.Equal(t, 7*3, c)

	est := data.NewModel()
	require.NoError(t, est.Fit(data.X, data.Y))
	pred, err := est.Predict(data.X)
	require.NoError(t, err)
	pr, _ := pred.Dims()
	assert.Equal(t, 12, pr)
	for i := 0; i < pr; i++ {
		assert.False(t, math.IsNaN(pred.At(i, 0)), "subject %d", i)
	}
}

func TestLoad_Handcrafted(t *testing.T) {
	seedDataset(t, 12)

	data, err := Load("tuab", Handcrafted, "")
	require.NoError(t, err)

	r, c := data.X.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 4, c)

	// A feature missing in every epoch of a subject survives aggregation as
	// NaN and is left for the imputer inside the pipeline.
	assert.True(t, math.IsNaN(data.X.At(0, 1)))
	assert.False(t, math.IsNaN(data.X.At(1, 1)))

	est := data.NewModel()
	require.NoError(t, est.Fit(data.X, data.Y))
	pred, err := est.Predict(data.X)
	require.NoError(t, err)
	pr, _ := pred.Dims()
	assert.Equal(t, 12, pr)
	for i := 0; i < pr; i++ {
		assert.False(t, math.IsNaN(pred.At(i, 0)), "subject %d", i)
	}
}

func TestLoad_Deep(t *testing.T) {
	_, err := Load("tuab", Deep, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotImplemented))
}

func TestLoad_UnknownNames(t *testing.T) {
	_, err := Load("tuab", "svm", "")
	require.Error(t, err)

	seedDataset(t, 3)
	_, err = Load("hcp", Dummy, "")
	require.Error(t, err)
}

func TestRunCV_DummyEndToEnd(t *testing.T) {
	seedDataset(t, 20)

	result, err := RunCV("tuab", Dummy, "", 2)
	require.NoError(t, err)
	require.Len(t, result.Folds, 10)

	for _, fold := range result.Folds {
		assert.Greater(t, fold.MAE, 0.0, "fold %d", fold.Fold)
	}

	dir := t.TempDir()
	require.NoError(t, WriteResults(dir, Dummy, "tuab", result))
	back, err := ReadResults(ResultPath(dir, Dummy, "tuab"))
	require.NoError(t, err)
	assert.Len(t, back.Folds, 10)
}

package autoreject

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neurobench/brainage/core/parallel"
	"github.com/neurobench/brainage/dataset"
	"github.com/neurobench/brainage/pkg/errors"
)

// Per-subject processing outcomes recorded in the log table.
const (
	StatusOK      = "OK"
	StatusNoFile  = "no file"
	StatusNoEvent = "no event"
)

// EpochsPath returns the cleaned-epochs file of one subject in the
// derivatives root, for the given processing label.
func EpochsPath(cfg *dataset.Config, subject, processing string) string {
	name := fmt.Sprintf("%s_task-%s_proc-%s_epo.json", subject, cfg.Task, processing)
	if cfg.Session != "" {
		name = fmt.Sprintf("%s_ses-%s_task-%s_proc-%s_epo.json", subject, cfg.Session, cfg.Task, processing)
	}
	return filepath.Join(cfg.DerivRoot, subject, name)
}

// ReadEpochs reads an epochs document.
func ReadEpochs(path string) (*Epochs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening epochs %s", path)
	}
	defer f.Close()

	var e Epochs
	if err := json.NewDecoder(f).Decode(&e); err != nil {
		return nil, errors.Wrapf(err, "decoding epochs %s", path)
	}
	return &e, nil
}

// WriteEpochs writes an epochs document, creating parent directories.
func WriteEpochs(path string, e *Epochs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating epochs dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating epochs %s", path)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return errors.Wrapf(err, "encoding epochs %s", path)
	}
	return nil
}

// RunSubject cleans one subject's epochs: artifact rejection on the analysis
// channels, then average re-reference. Returns the log status for the
// subject.
func RunSubject(cfg *dataset.Config, subject string) (string, error) {
	inPath := EpochsPath(cfg, subject, "clean")
	if _, err := os.Stat(inPath); err != nil {
		return StatusNoFile, nil
	}

	epochs, err := ReadEpochs(inPath)
	if err != nil {
		return "", err
	}

	if !epochs.HasAnyCondition(cfg.Conditions) {
		return StatusNoEvent, nil
	}

	epochs.PickChannels(cfg.AnalyzeChannels)

	ar := NewAutoReject()
	cleaned, err := ar.FitTransform(epochs)
	if err != nil {
		return "", errors.Wrapf(err, "subject %s", subject)
	}

	// Re-reference after rejection so the reference is not skewed by
	// artifact epochs. All datasets get the same reference to keep the
	// benchmarks comparable.
	SetAverageReference(cleaned)

	outPath := EpochsPath(cfg, subject, "autoreject")
	if err := WriteEpochs(outPath, cleaned); err != nil {
		return "", err
	}

	slog.Debug("autoreject finished",
		"subject", subject,
		"threshold", ar.Threshold,
		"n_epochs_in", epochs.NEpochs(),
		"n_epochs_out", cleaned.NEpochs(),
	)
	return StatusOK, nil
}

// RunDataset cleans every participant of a dataset on up to nJobs workers
// and writes the per-subject status log to autoreject_log.csv in the
// derivatives root.
func RunDataset(datasetName string, nJobs int) error {
	cfg, err := dataset.Load(datasetName)
	if err != nil {
		return err
	}

	participants, err := dataset.LoadParticipants(cfg.BIDSRoot)
	if err != nil {
		return err
	}

	slog.Info("computing autoreject", "dataset", datasetName, "n_subjects", len(participants))

	statuses := make([]string, len(participants))
	runErrs := make([]error, len(participants))

	parallel.MapN(len(participants), nJobs, func(i int) {
		status, err := RunSubject(cfg, participants[i].ID)
		if err != nil {
			runErrs[i] = err
			statuses[i] = err.Error()
			return
		}
		statuses[i] = status
	})

	for _, err := range runErrs {
		if err != nil {
			return err
		}
	}

	return writeLog(cfg.DerivRoot, participants, statuses)
}

func writeLog(derivRoot string, participants []dataset.Participant, statuses []string) error {
	if err := os.MkdirAll(derivRoot, 0o755); err != nil {
		return errors.Wrapf(err, "creating derivatives dir %s", derivRoot)
	}

	path := filepath.Join(derivRoot, "autoreject_log.csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating autoreject log %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ok", "subject"}); err != nil {
		return errors.Wrap(err, "writing autoreject log header")
	}
	for i, p := range participants {
		if err := w.Write([]string{statuses[i], p.ID}); err != nil {
			return errors.Wrap(err, "writing autoreject log row")
		}
	}

	w.Flush()
	return errors.Wrapf(w.Error(), "flushing autoreject log %s", path)
}

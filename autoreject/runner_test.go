package autoreject

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/neurobench/brainage/dataset"
)

func testConfig(t *testing.T) *dataset.Config {
	t.Helper()
	root := t.TempDir()
	return &dataset.Config{
		Name:             "tuab",
		BIDSRoot:         filepath.Join(root, "tuab"),
		DerivRoot:        filepath.Join(root, "tuab", "derivatives"),
		Task:             "rest",
		DataType:         "eeg",
		Session:          "001",
		AnalyzeChannels:  []string{"Cz", "Pz", "Oz"},
		Conditions:       []string{"rest"},
		DefaultCondition: "rest",
	}
}

func TestEpochsPath(t *testing.T) {
	cfg := testConfig(t)

	got := EpochsPath(cfg, "sub-01", "clean")
	want := filepath.Join(cfg.DerivRoot, "sub-01", "sub-01_ses-001_task-rest_proc-clean_epo.json")
	if got != want {
		t.Errorf("EpochsPath() = %q, want %q", got, want)
	}

	cfg.Session = ""
	got = EpochsPath(cfg, "sub-01", "autoreject")
	want = filepath.Join(cfg.DerivRoot, "sub-01", "sub-01_task-rest_proc-autoreject_epo.json")
	if got != want {
		t.Errorf("EpochsPath() without session = %q, want %q", got, want)
	}
}

func TestReadWriteEpochs_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-01", "epo.json")
	e := syntheticEpochs(4, 0)

	if err := WriteEpochs(path, e); err != nil {
		t.Fatalf("WriteEpochs() error = %v", err)
	}

	back, err := ReadEpochs(path)
	if err != nil {
		t.Fatalf("ReadEpochs() error = %v", err)
	}

	if back.Subject != e.Subject || back.SFreq != e.SFreq {
		t.Errorf("round trip changed metadata: %+v", back)
	}
	if back.NEpochs() != e.NEpochs() {
		t.Errorf("round trip changed epoch count: %d vs %d", back.NEpochs(), e.NEpochs())
	}
	if back.Data[0][0][0] != e.Data[0][0][0] {
		t.Errorf("round trip changed data: %v vs %v", back.Data[0][0][0], e.Data[0][0][0])
	}
}

func TestRunSubject(t *testing.T) {
	cfg := testConfig(t)

	t.Run("missing input file", func(t *testing.T) {
		status, err := RunSubject(cfg, "sub-99")
		if err != nil {
			t.Fatalf("RunSubject() error = %v", err)
		}
		if status != StatusNoFile {
			t.Errorf("status = %q, want %q", status, StatusNoFile)
		}
	})

	t.Run("no matching event", func(t *testing.T) {
		e := syntheticEpochs(10, 0)
		e.EventID = map[string]int{"eyes/open": 1}
		if err := WriteEpochs(EpochsPath(cfg, "sub-02", "clean"), e); err != nil {
			t.Fatal(err)
		}

		status, err := RunSubject(cfg, "sub-02")
		if err != nil {
			t.Fatalf("RunSubject() error = %v", err)
		}
		if status != StatusNoEvent {
			t.Errorf("status = %q, want %q", status, StatusNoEvent)
		}
	})

	t.Run("cleans and writes output", func(t *testing.T) {
		e := syntheticEpochs(20, 3)
		if err := WriteEpochs(EpochsPath(cfg, "sub-03", "clean"), e); err != nil {
			t.Fatal(err)
		}

		status, err := RunSubject(cfg, "sub-03")
		if err != nil {
			t.Fatalf("RunSubject() error = %v", err)
		}
		if status != StatusOK {
			t.Fatalf("status = %q, want %q", status, StatusOK)
		}

		cleaned, err := ReadEpochs(EpochsPath(cfg, "sub-03", "autoreject"))
		if err != nil {
			t.Fatalf("reading cleaned epochs: %v", err)
		}
		if cleaned.NEpochs() != 20 {
			t.Errorf("cleaned epochs = %d, want 20", cleaned.NEpochs())
		}

		// Output carries the average reference.
		sum := 0.0
		for c := range cleaned.Data[0] {
			sum += cleaned.Data[0][c][0]
		}
		if sum > 1e-9 || sum < -1e-9 {
			t.Errorf("channel sum after re-reference = %v, want 0", sum)
		}
	})
}

func TestWriteLog(t *testing.T) {
	deriv := filepath.Join(t.TempDir(), "derivatives")
	participants := []dataset.Participant{
		{ID: "sub-01"},
		{ID: "sub-02"},
	}
	statuses := []string{StatusOK, StatusNoFile}

	if err := writeLog(deriv, participants, statuses); err != nil {
		t.Fatalf("writeLog() error = %v", err)
	}

	f, err := os.Open(filepath.Join(deriv, "autoreject_log.csv"))
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("log has %d rows, want 3", len(records))
	}
	if records[0][0] != "ok" || records[0][1] != "subject" {
		t.Errorf("header = %v, want [ok subject]", records[0])
	}
	if records[1][0] != StatusOK || records[2][0] != StatusNoFile {
		t.Errorf("statuses = %v, %v", records[1], records[2])
	}
}

package errors

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWarnOutput(&buf)
	t.Cleanup(func() { SetWarnOutput(os.Stderr) })
	return &buf
}

func TestWarn_EmitsStructuredWarning(t *testing.T) {
	buf := captureWarnings(t)

	Warn(NewSelectionWarning("RidgeCV", "selected alpha at the edge of the search grid"))

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("warning output is not JSON: %v", err)
	}

	if record["level"] != "warn" {
		t.Errorf("level = %v, want warn", record["level"])
	}
	if record["estimator"] != "RidgeCV" {
		t.Errorf("estimator = %v, want RidgeCV", record["estimator"])
	}
	if record["type"] != "SelectionWarning" {
		t.Errorf("type = %v, want SelectionWarning", record["type"])
	}
	if record["reason"] != "selected alpha at the edge of the search grid" {
		t.Errorf("reason field = %v", record["reason"])
	}
	// Msg carries the full rendered warning.
	if record["message"] != "brainage: RidgeCV: selected alpha at the edge of the search grid" {
		t.Errorf("message field = %v", record["message"])
	}
}

func TestWarn_PlainErrorStillLogged(t *testing.T) {
	buf := captureWarnings(t)

	Warn(New("something odd"))

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("warning output is not JSON: %v", err)
	}
	if record["level"] != "warn" {
		t.Errorf("level = %v, want warn", record["level"])
	}
}

func TestMarshalZerologObject(t *testing.T) {
	tests := []struct {
		name string
		obj  zerolog.LogObjectMarshaler
		want map[string]interface{}
	}{
		{
			name: "NotFittedError",
			obj:  &NotFittedError{EstimatorName: "RidgeCV", Method: "Predict"},
			want: map[string]interface{}{
				"estimator": "RidgeCV",
				"method":    "Predict",
				"type":      "NotFittedError",
			},
		},
		{
			name: "DimensionError",
			obj:  &DimensionError{Op: "Fit", Expected: 10, Got: 7, Axis: 0},
			want: map[string]interface{}{
				"operation": "Fit",
				"expected":  float64(10),
				"got":       float64(7),
				"axis_name": "rows",
				"type":      "DimensionError",
			},
		},
		{
			name: "ValidationError",
			obj:  &ValidationError{ParamName: "dataset", Reason: "unknown dataset", Value: "hcp"},
			want: map[string]interface{}{
				"param_name": "dataset",
				"reason":     "unknown dataset",
				"value":      "hcp",
				"type":       "ValidationError",
			},
		},
		{
			name: "SelectionWarning",
			obj:  &SelectionWarning{EstimatorName: "AutoReject", Message: "keeping all epochs"},
			want: map[string]interface{}{
				"estimator": "AutoReject",
				"reason":    "keeping all epochs",
				"type":      "SelectionWarning",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			logger.Error().EmbedObject(tt.obj).Msg("")

			var record map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("log output is not JSON: %v", err)
			}

			for key, want := range tt.want {
				if record[key] != want {
					t.Errorf("field %q = %v, want %v", key, record[key], want)
				}
			}
		})
	}
}

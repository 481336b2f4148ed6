package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BRAINAGE_DATA_ROOT", "/srv/brainage")

	tests := []struct {
		name        string
		dataType    string
		task        string
		defaultCond string
		rank        int
		nChannels   int
	}{
		{CHBP, "eeg", "protmap", "pooled", 0, 19},
		{LEMON, "eeg", "RSEEG", "pooled", 0, 19},
		{TUAB, "eeg", "rest", "rest", 0, 19},
		{CamCAN, "meg", "rest", "rest", 65, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.name)
			require.NoError(t, err)

			assert.Equal(t, tt.name, cfg.Name)
			assert.Equal(t, tt.dataType, cfg.DataType)
			assert.Equal(t, tt.task, cfg.Task)
			assert.Equal(t, tt.defaultCond, cfg.DefaultCondition)
			assert.Equal(t, tt.rank, cfg.Rank)
			assert.Len(t, cfg.AnalyzeChannels, tt.nChannels)
			assert.Equal(t, filepath.Join("/srv/brainage", tt.name), cfg.BIDSRoot)
			assert.Equal(t, filepath.Join("/srv/brainage", tt.name, "derivatives"), cfg.DerivRoot)
		})
	}
}

func TestLoad_UnknownDataset(t *testing.T) {
	_, err := Load("hcp")
	require.Error(t, err)
}

func TestConfig_ProjectionRank(t *testing.T) {
	eeg := Config{AnalyzeChannels: tenTwenty}
	assert.Equal(t, 18, eeg.ProjectionRank())

	meg := Config{Rank: 65}
	assert.Equal(t, 65, meg.ProjectionRank())
}

func TestConfig_Condition(t *testing.T) {
	cfg := Config{DefaultCondition: "pooled"}
	assert.Equal(t, "pooled", cfg.Condition(""))
	assert.Equal(t, "eyes/closed", cfg.Condition("eyes/closed"))
}

func TestIsKnown(t *testing.T) {
	for _, name := range Names {
		assert.True(t, IsKnown(name), name)
	}
	assert.False(t, IsKnown("mous"))
	assert.False(t, IsKnown(""))
}

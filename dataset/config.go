// Package dataset provides per-dataset configuration and the readers for
// subject tables and precomputed feature stores. Four datasets are known:
// chbp, lemon, tuab (EEG) and camcan (MEG).
package dataset

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/neurobench/brainage/pkg/errors"
)

// Known dataset names.
const (
	CHBP   = "chbp"
	LEMON  = "lemon"
	TUAB   = "tuab"
	CamCAN = "camcan"
)

// Names lists the known datasets in canonical order.
var Names = []string{CHBP, LEMON, TUAB, CamCAN}

// IsKnown reports whether name is a known dataset.
func IsKnown(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Config holds the paths and recording parameters of one dataset.
type Config struct {
	Name            string
	BIDSRoot        string
	DerivRoot       string
	Task            string
	DataType        string
	Session         string
	AnalyzeChannels []string
	Conditions      []string

	// DefaultCondition is used when no condition is requested: "pooled" for
	// the eyes-open/eyes-closed EEG datasets, "rest" otherwise.
	DefaultCondition string

	// Rank is the covariance projection rank. Zero means len(channels)-1.
	Rank int
}

// ProjectionRank resolves the covariance projection rank for the riemann
// filter bank.
func (c *Config) ProjectionRank() int {
	if c.Rank > 0 {
		return c.Rank
	}
	return len(c.AnalyzeChannels) - 1
}

// Condition resolves a requested condition, falling back to the dataset
// default when empty.
func (c *Config) Condition(requested string) string {
	if requested != "" {
		return requested
	}
	return c.DefaultCondition
}

// tenTwenty is the 19-channel 10-20 montage shared by the clinical EEG
// datasets.
var tenTwenty = []string{
	"Fp1", "Fp2", "F7", "F3", "Fz", "F4", "F8",
	"T7", "C3", "Cz", "C4", "T8",
	"P7", "P3", "Pz", "P4", "P8",
	"O1", "O2",
}

func defaultConfigs(dataRoot string) map[string]Config {
	return map[string]Config{
		CHBP: {
			Name:             CHBP,
			BIDSRoot:         filepath.Join(dataRoot, "chbp"),
			DerivRoot:        filepath.Join(dataRoot, "chbp", "derivatives"),
			Task:             "protmap",
			DataType:         "eeg",
			AnalyzeChannels:  tenTwenty,
			Conditions:       []string{"eyes/closed", "eyes/open"},
			DefaultCondition: "pooled",
		},
		LEMON: {
			Name:             LEMON,
			BIDSRoot:         filepath.Join(dataRoot, "lemon"),
			DerivRoot:        filepath.Join(dataRoot, "lemon", "derivatives"),
			Task:             "RSEEG",
			DataType:         "eeg",
			AnalyzeChannels:  tenTwenty,
			Conditions:       []string{"eyes/closed", "eyes/open"},
			DefaultCondition: "pooled",
		},
		TUAB: {
			Name:             TUAB,
			BIDSRoot:         filepath.Join(dataRoot, "tuab"),
			DerivRoot:        filepath.Join(dataRoot, "tuab", "derivatives"),
			Task:             "rest",
			DataType:         "eeg",
			Session:          "001",
			AnalyzeChannels:  tenTwenty,
			Conditions:       []string{"rest"},
			DefaultCondition: "rest",
		},
		CamCAN: {
			Name:             CamCAN,
			BIDSRoot:         filepath.Join(dataRoot, "camcan"),
			DerivRoot:        filepath.Join(dataRoot, "camcan", "derivatives"),
			Task:             "rest",
			DataType:         "meg",
			Conditions:       []string{"rest"},
			DefaultCondition: "rest",
			Rank:             65,
		},
	}
}

// Load resolves the configuration of one dataset. Defaults can be overridden
// by a brainage.yaml config file in the working directory and by environment
// variables prefixed with BRAINAGE (for example BRAINAGE_DATA_ROOT).
func Load(name string) (*Config, error) {
	if !IsKnown(name) {
		return nil, errors.NewValidationError("dataset", "unknown dataset", name)
	}

	v := viper.New()
	v.SetConfigName("brainage")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("brainage")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_root", "./data")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, the defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading brainage config")
		}
	}

	cfg := defaultConfigs(v.GetString("data_root"))[name]

	prefix := "datasets." + name + "."
	if v.IsSet(prefix + "bids_root") {
		cfg.BIDSRoot = v.GetString(prefix + "bids_root")
	}
	if v.IsSet(prefix + "deriv_root") {
		cfg.DerivRoot = v.GetString(prefix + "deriv_root")
	}
	if v.IsSet(prefix + "task") {
		cfg.Task = v.GetString(prefix + "task")
	}
	if v.IsSet(prefix + "analyze_channels") {
		cfg.AnalyzeChannels = v.GetStringSlice(prefix + "analyze_channels")
	}
	if v.IsSet(prefix + "rank") {
		cfg.Rank = v.GetInt(prefix + "rank")
	}

	return &cfg, nil
}

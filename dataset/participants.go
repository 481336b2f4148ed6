package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/neurobench/brainage/pkg/errors"
)

// Participant is one row of a BIDS participants table.
type Participant struct {
	ID  string
	Age float64
}

// LoadParticipants reads participants.tsv from the BIDS root. The table must
// carry participant_id and age columns; row order is preserved.
func LoadParticipants(bidsRoot string) ([]Participant, error) {
	path := filepath.Join(bidsRoot, "participants.tsv")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening participants table %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading participants table %s", path)
	}
	if len(records) < 1 {
		return nil, errors.Newf("participants table %s is empty", path)
	}

	idCol, ageCol := -1, -1
	for i, name := range records[0] {
		switch name {
		case "participant_id":
			idCol = i
		case "age":
			ageCol = i
		}
	}
	if idCol < 0 || ageCol < 0 {
		return nil, errors.Newf("participants table %s lacks participant_id or age column", path)
	}

	participants := make([]Participant, 0, len(records)-1)
	for i, rec := range records[1:] {
		age, err := strconv.ParseFloat(rec[ageCol], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "participants table %s row %d: bad age", path, i+2)
		}
		participants = append(participants, Participant{ID: rec[idCol], Age: age})
	}

	return participants, nil
}

// LoadFeatureLog reads the feature computation log
// feature_<label>_<condition>-log.csv from the derivatives root and returns
// the subjects whose status is "OK".
func LoadFeatureLog(derivRoot, featureLabel, condition string) (map[string]bool, error) {
	path := filepath.Join(derivRoot, "feature_"+featureLabel+"_"+condition+"-log.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening feature log %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading feature log %s", path)
	}
	if len(records) < 1 {
		return nil, errors.Newf("feature log %s is empty", path)
	}

	okCol, subjectCol := -1, -1
	for i, name := range records[0] {
		switch name {
		case "ok":
			okCol = i
		case "subject":
			subjectCol = i
		}
	}
	if okCol < 0 || subjectCol < 0 {
		return nil, errors.Newf("feature log %s lacks ok or subject column", path)
	}

	good := make(map[string]bool)
	for _, rec := range records[1:] {
		if rec[okCol] == "OK" {
			good[rec[subjectCol]] = true
		}
	}

	return good, nil
}

// FilterParticipants keeps participants present in the good-subject set,
// preserving order.
func FilterParticipants(participants []Participant, good map[string]bool) []Participant {
	kept := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if good[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept
}

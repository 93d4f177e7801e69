package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
)

// WriteAnalysis serializes an analysis report to path as indented JSON.
// Parent directories are created as needed.
func WriteAnalysis(path string, a *Analysis) error {
	return writeJSON(path, a)
}

// ReadAnalysis deserializes an analysis report from path.
func ReadAnalysis(path string) (*Analysis, error) {
	var a Analysis
	if err := readJSON(path, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// WriteValidation serializes a validation report to path as indented JSON.
func WriteValidation(path string, v *Validation) error {
	return writeJSON(path, v)
}

// ReadValidation deserializes a validation report from path.
func ReadValidation(path string) (*Validation, error) {
	var v Validation
	if err := readJSON(path, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "serialize report")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create report directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write report %s", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeFileNotFound, "report not found: %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read report %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse report %s", path)
	}
	return nil
}

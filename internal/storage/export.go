package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Metadata    *RunMetadata `json:"metadata"`
	Diagnostics []Row        `json:"diagnostics"`
}

// ExportJSON writes a run's metadata and diagnostics as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadDiagnostics(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Metadata: meta, Diagnostics: rows})
}

func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}

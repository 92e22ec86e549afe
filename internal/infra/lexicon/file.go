package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fileFormat is the on-disk representation written by `summarize lexicon build`.
type fileFormat struct {
	Corpus    string             `json:"corpus"`
	Documents int                `json:"documents"`
	Weights   map[string]float64 `json:"weights"`
}

// LoadFile reads a JSON IDF table.
func LoadFile(path string) (*Table, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read lexicon: %w", err)
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("decode lexicon %s: %w", path, err)
	}
	if f.Documents <= 0 {
		return nil, "", fmt.Errorf("lexicon %s: %w", path, ErrNoDocuments)
	}
	return NewTable(f.Weights, f.Documents), f.Corpus, nil
}

// WriteFile stores the table as JSON, creating parent directories as needed.
func WriteFile(path, corpus string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create lexicon dir: %w", err)
	}
	data, err := json.MarshalIndent(fileFormat{
		Corpus:    corpus,
		Documents: t.Documents(),
		Weights:   t.weights,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lexicon: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write lexicon: %w", err)
	}
	return nil
}

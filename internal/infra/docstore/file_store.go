package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

// Store reads annotated groups and writes produced summaries.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*docgroup.Group, error)
	SaveSummary(ctx context.Context, summary summarizer.Summary) (string, error)
}

// FileStore reads *.json groups from one directory and writes summaries to another.
type FileStore struct {
	inputDir  string
	outputDir string
	logger    *slog.Logger
}

// NewFileStore constructs the store.
func NewFileStore(inputDir, outputDir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		inputDir:  inputDir,
		outputDir: outputDir,
		logger:    logger.With("component", "docstore.file"),
	}
}

// List returns the group file names in lexical order.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.inputDir)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load decodes one group file.
func (s *FileStore) Load(_ context.Context, name string) (*docgroup.Group, error) {
	f, err := os.Open(filepath.Join(s.inputDir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("open group: %w", err)
	}
	defer f.Close()
	group, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return group, nil
}

// SaveSummary writes the plain-text summary and its JSON record, returning the text path.
func (s *FileStore) SaveSummary(_ context.Context, summary summarizer.Summary) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := SummaryName(summary)
	textPath := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(textPath, SummaryText(summary), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	record, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(textPath+".json", record, 0o644); err != nil {
		return "", fmt.Errorf("write summary record: %w", err)
	}
	s.logger.Debug("summary written", "topic", summary.TopicID, "path", textPath)
	return textPath, nil
}

var _ Store = (*FileStore)(nil)

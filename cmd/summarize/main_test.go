package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/docgroup/docgrouptest"
	"github.com/yanqian/newsdigest/internal/infra/docstore"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
)

func TestRunWritesOneSummaryPerTopic(t *testing.T) {
	input := writeGroups(t, "D0901A", "D0902B")
	output := filepath.Join(t.TempDir(), "out")
	cfgFile := writeConfig(t, "lexicon:\n  hashVectorDim: 8\n")

	stdout, err := execute(t, "--config", cfgFile, "run", "--input", input, "--output", output, "--workers", "2")
	require.NoError(t, err)

	lines := strings.Fields(stdout)
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(filepath.Base(lines[0]), "D0901A-A.M.100."))
	require.True(t, strings.HasPrefix(filepath.Base(lines[1]), "D0902B-A.M.100."))
	for _, path := range lines {
		body, err := os.ReadFile(path)
		require.NoError(t, err)
		words := len(strings.Fields(string(body)))
		require.LessOrEqual(t, words, 100)
		require.FileExists(t, path+".json")
	}
}

func TestRunRejectsUnknownMethod(t *testing.T) {
	input := writeGroups(t, "D1")
	cfgFile := writeConfig(t, "")

	_, err := execute(t, "--config", cfgFile, "run", "--input", input, "--method", "lda")
	require.Error(t, err)
	require.Contains(t, err.Error(), "summary.method")
}

func TestLexiconBuild(t *testing.T) {
	input := writeGroups(t, "D1", "D2")
	out := filepath.Join(t.TempDir(), "idf.json")
	cfgFile := writeConfig(t, "")

	_, err := execute(t, "--config", cfgFile, "lexicon", "build", "--input", input, "--output", out, "--corpus", "test")
	require.NoError(t, err)

	table, corpus, err := lexicon.LoadFile(out)
	require.NoError(t, err)
	require.Equal(t, "test", corpus)
	require.Equal(t, 4, table.Documents())
	_, ok := table.Lookup("floyd")
	require.True(t, ok)

	_, err = execute(t, "--config", cfgFile, "lexicon", "build", "--input", input)
	require.Error(t, err)
}

func TestUploadRequiresObjectStore(t *testing.T) {
	input := writeGroups(t, "D1")
	cfgFile := writeConfig(t, "")

	_, err := execute(t, "--config", cfgFile, "upload", "--input", input)
	require.ErrorContains(t, err, "objectStore")
}

func TestLexiconVectorsRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, os.WriteFile(path, []byte("floyd 1 2\nstorm 1\n"), 0o600))
	cfgFile := writeConfig(t, "")

	_, err := execute(t, "--config", cfgFile, "lexicon", "vectors", path)
	require.ErrorContains(t, err, "dimension")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeGroups(t *testing.T, topics ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, topic := range topics {
		group := &docgroup.Group{TopicID: topic, Articles: []*docgroup.Article{
			docgrouptest.Article(topic+".A", "1999-09-13",
				docgrouptest.Sentence("Hurricane Floyd strengthened over the warm Atlantic waters on Monday morning."),
				docgrouptest.Sentence("Forecasters expect Hurricane Floyd to reach the northern Bahamas by Tuesday night."),
			),
			docgrouptest.Article(topic+".B", "1999-09-14",
				docgrouptest.Sentence("Florida officials ordered coastal evacuations ahead of Hurricane Floyd on Tuesday."),
				docgrouptest.Sentence("Highways leading inland filled with slow traffic through the entire night."),
			),
		}}
		f, err := os.Create(filepath.Join(dir, topic+".json"))
		require.NoError(t, err)
		require.NoError(t, docstore.Encode(f, group))
		require.NoError(t, f.Close())
	}
	return dir
}

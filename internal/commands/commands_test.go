package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runFinboard(t, "init", dir)
	require.NoError(t, err)
	return dir
}

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, raw, 0o644))
}

func TestBanks_ListsRegisteredProfiles(t *testing.T) {
	out, err := runFinboard(t, "banks")
	require.NoError(t, err)

	assert.Contains(t, out, "CONTEXT")
	assert.Contains(t, out, "Nubank")
	assert.Contains(t, out, "credit_card")
	assert.Contains(t, out, "latin-1")
}

func TestUpload_RequiresFilesOrInbox(t *testing.T) {
	dir := initWorkspace(t)

	_, err := runIn(t, dir, "upload", "--bank", "Nubank")
	require.Error(t, err)

	_, err = runIn(t, dir, "upload", "--bank", "Nubank", "--inbox", "x.csv")
	require.Error(t, err)
}

func TestUpload_DryRunLeavesTablesAlone(t *testing.T) {
	dir := initWorkspace(t)
	file := filepath.Join(dir, "nubank.csv")
	copyFixture(t, "nubank_statement.csv", file)

	out, err := runIn(t, dir, "upload", "--bank", "Nubank", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 expenses, 1 incomes")
	assert.Contains(t, out, "Dry run")

	_, err = os.Stat(filepath.Join(dir, "database", "default_expenses.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpload_InboxSavesAndMovesFiles(t *testing.T) {
	dir := initWorkspace(t)
	copyFixture(t, "nubank_statement.csv", filepath.Join(dir, "database", "import", "nubank.csv"))

	out, err := runIn(t, dir, "upload", "--bank", "Nubank", "--inbox", "--save")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 expenses, 1 incomes")

	_, err = os.Stat(filepath.Join(dir, "database", "import", "processed", "nubank.csv"))
	require.NoError(t, err, "file should be moved to processed")
	_, err = os.Stat(filepath.Join(dir, "database", "import", "nubank.csv"))
	assert.True(t, os.IsNotExist(err))

	for _, table := range []string{"default_expenses.csv", "default_incomes.csv"} {
		_, err = os.Stat(filepath.Join(dir, "database", table))
		assert.NoError(t, err, "%s should be saved", table)
	}

	log, err := os.ReadFile(filepath.Join(dir, "database", "logs", "ingest-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "upload,default,Nubank,statement")

	out, err = runIn(t, dir, "upload", "--bank", "Nubank", "--inbox")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No files waiting")
}

func TestUpload_UnknownBank(t *testing.T) {
	dir := initWorkspace(t)
	file := filepath.Join(dir, "nubank.csv")
	copyFixture(t, "nubank_statement.csv", file)

	out, err := runIn(t, dir, "upload", "--bank", "Itau", file)
	require.Error(t, err)
	assert.Contains(t, out, "unknown bank")
}

func TestReport_MonthAndYear(t *testing.T) {
	dir := initWorkspace(t)
	file := filepath.Join(dir, "nubank.csv")
	copyFixture(t, "nubank_statement.csv", file)
	_, err := runIn(t, dir, "upload", "--bank", "Nubank", "--save", file)
	require.NoError(t, err)

	out, err := runIn(t, dir, "report", "--year", "2024", "--month", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2024-03 balance:")
	assert.Contains(t, out, "SUBCATEGORY")

	out, err = runIn(t, dir, "report", "--year", "2024")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Mar")

	out, err = runIn(t, dir, "report")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2024")
}

func TestReport_EmptyProfile(t *testing.T) {
	dir := initWorkspace(t)
	out, err := runIn(t, dir, "report")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No saved rows.")
}

func TestTrainThenCategorize(t *testing.T) {
	dir := initWorkspace(t)
	samples := "description,label\n" +
		"padaria central,groceries\n" +
		"supermercado extra,Supermercado\n" +
		"restaurante sabor,dining_out\n" +
		"lanchonete do ze,Restaurantes\n"
	input := filepath.Join(dir, "labeled.csv")
	require.NoError(t, os.WriteFile(input, []byte(samples), 0o644))

	out, err := runIn(t, dir, "train", "--input", input)
	require.NoError(t, err, out)
	assert.Contains(t, out, "4 samples (2 labels)")
	for _, f := range []string{"subcategory_vectorizer.yaml", "subcategory_classifier.gob"} {
		_, err := os.Stat(filepath.Join(dir, "models", f))
		assert.NoError(t, err, "%s should be written", f)
	}

	file := filepath.Join(dir, "nubank.csv")
	copyFixture(t, "nubank_statement.csv", file)
	_, err = runIn(t, dir, "upload", "--bank", "Nubank", "--save", file)
	require.NoError(t, err)

	out, err = runIn(t, dir, "categorize")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Categorized expenses: 2 rows saved.")

	out, err = runIn(t, dir, "categorize")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Nothing to categorize in expenses.")
}

func TestTrain_RejectsUnknownLabel(t *testing.T) {
	dir := initWorkspace(t)
	input := filepath.Join(dir, "labeled.csv")
	require.NoError(t, os.WriteFile(input, []byte("description,label\npadaria,bakery\nmercado,groceries\n"), 0o644))

	out, err := runIn(t, dir, "train", "--input", input)
	require.Error(t, err)
	assert.Contains(t, out, `row 2: unknown label "bakery"`)
}

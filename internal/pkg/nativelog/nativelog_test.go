package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRollsDaily(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "inkrealm_2024-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(b))

	b, err = os.ReadFile(filepath.Join(dir, "inkrealm_2024-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(b))
}

func TestWriterIgnoresEmptyWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	n, err := w.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewZapLoggerCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger, err := NewZapLogger(dir, true)
	require.NoError(t, err)
	logger.Info("hello")

	_, err = os.Stat(filepath.Join(dir, TodayFilename(time.Now())))
	assert.NoError(t, err)
}

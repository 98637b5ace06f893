package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.png", "newest.jpg", "middle.bmp", "ignored.txt"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if name == "newest.jpg" {
			modTime = time.Now().Add(10 * time.Hour)
		}
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}

	latest, err := FindLatestImage(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "newest.jpg"), latest)
}

func TestFindLatestImageEmpty(t *testing.T) {
	_, err := FindLatestImage(t.TempDir())
	assert.Error(t, err)

	_, err = FindLatestImage(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

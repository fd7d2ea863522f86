package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vitals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	def := defaults()
	require.Equal(t, time.Second, def.PollInterval)
	require.Equal(t, 2*time.Second, def.CallTimeout)
	require.Equal(t, 10*time.Second, def.UploadInterval)
	require.True(t, def.CondensedDisplay)
	require.Equal(t, 30*time.Second, def.Chest.ConnectTimeout)
}

func TestStoreLoadsFile(t *testing.T) {
	path := writeConfig(t, `
poll_interval: 250ms
upload_interval: 30s
condensed_display: false
group_id: study-42
wrist:
  api_key: secret
chest:
  address: "00:11:22:33:44:55"
`)

	s, err := NewStore(path, quietLogger())
	require.NoError(t, err)

	cfg := s.Current()
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 30*time.Second, cfg.UploadInterval)
	require.False(t, cfg.CondensedDisplay)
	require.Equal(t, "study-42", cfg.GroupID)
	require.Equal(t, "secret", cfg.Wrist.APIKey)
	require.Equal(t, "00:11:22:33:44:55", cfg.Chest.Address)
	// Unset keys keep their defaults.
	require.Equal(t, 2*time.Second, cfg.CallTimeout)
}

func TestStoreMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	s, err := NewStore(path, quietLogger())
	require.Error(t, err)

	// The store still serves usable defaults.
	require.Equal(t, time.Second, s.Current().PollInterval)
}

func TestFetchRetainsPreviousOnFailure(t *testing.T) {
	path := writeConfig(t, "poll_interval: 3s\n")

	s, err := NewStore(path, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, s.Current().PollInterval)

	// Corrupt the file; the refetch fails but the snapshot survives.
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
	require.Error(t, s.Fetch())
	require.Equal(t, 3*time.Second, s.Current().PollInterval)
}

func TestFetchRejectsNonPositiveInterval(t *testing.T) {
	path := writeConfig(t, "poll_interval: 0s\n")

	s, err := NewStore(path, quietLogger())
	require.Error(t, err)
	require.Equal(t, time.Second, s.Current().PollInterval)
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
slots:
  - slot: 0
    device_filter: "A01B2C"
  - slot: 2
    device_filter: "Polar H10 5A2F"
`), 0o644))

	m, err := LoadManifest(path, 4)
	require.NoError(t, err)
	require.Equal(t, "A01B2C", m.Filter(0))
	require.Equal(t, "", m.Filter(1))
	require.Equal(t, "Polar H10 5A2F", m.Filter(2))
}

func TestLoadManifestRejectsOutOfRangeSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slots:\n  - slot: 4\n"), 0o644))

	_, err := LoadManifest(path, 4)
	require.ErrorContains(t, err, "out of range")
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"), 4)
	require.Error(t, err)
}

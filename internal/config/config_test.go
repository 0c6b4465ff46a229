package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

func TestLoadFrom_Defaults(t *testing.T) {
	s := LoadFrom(viper.New())

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, timelapse.DefaultCacheCapacity, s.CacheCapacity)
	assert.Equal(t, timelapse.DefaultDifferenceThreshold, s.DifferenceThreshold)
	assert.Equal(t, timelapse.DefaultEpisodeGap, s.EpisodeTimeGap)
	assert.Equal(t, timelapse.DefaultMaxEpisodeSearch, s.MaxEpisodeSearch)
	assert.Equal(t, "lanczos3", s.ImageFilter)
	assert.Equal(t, 85, s.ImageQuality)
}

func TestLoadFrom_Clamps(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(t *testing.T, s Settings)
	}{
		{"capacity", KeyCacheCapacity, 1, func(t *testing.T, s Settings) { assert.Equal(t, 3, s.CacheCapacity) }},
		{"threshold high", KeyDifferenceThresh, 400, func(t *testing.T, s Settings) { assert.Equal(t, 255, s.DifferenceThreshold) }},
		{"threshold low", KeyDifferenceThresh, -1, func(t *testing.T, s Settings) { assert.Equal(t, 0, s.DifferenceThreshold) }},
		{"gap short", KeyEpisodeTimeGap, "5s", func(t *testing.T, s Settings) { assert.Equal(t, 15*time.Second, s.EpisodeTimeGap) }},
		{"gap long", KeyEpisodeTimeGap, "1h", func(t *testing.T, s Settings) { assert.Equal(t, 10*time.Minute, s.EpisodeTimeGap) }},
		{"gap zero", KeyEpisodeTimeGap, "0s", func(t *testing.T, s Settings) { assert.Equal(t, 2*time.Minute, s.EpisodeTimeGap) }},
		{"search range", KeyEpisodeSearchRange, 0, func(t *testing.T, s Settings) { assert.Equal(t, 40, s.MaxEpisodeSearch) }},
		{"display width", KeyDisplayWidth, -10, func(t *testing.T, s Settings) { assert.Equal(t, 0, s.DisplayWidth) }},
		{"quality", KeyImageQuality, 150, func(t *testing.T, s Settings) { assert.Equal(t, 85, s.ImageQuality) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			tt.check(t, LoadFrom(v))
		})
	}
}

func TestLoadFrom_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `logLevel: debug
cache:
  capacity: 15
difference:
  threshold: 35
episode:
  time_gap: 3m
  max_search_range: 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	s := LoadFrom(v)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 15, s.CacheCapacity)
	assert.Equal(t, 35, s.DifferenceThreshold)
	assert.Equal(t, 3*time.Minute, s.EpisodeTimeGap)
	assert.Equal(t, 60, s.MaxEpisodeSearch)
}

func TestSettings_SessionBuilder(t *testing.T) {
	s := LoadFrom(viper.New())
	s.CacheCapacity = 5
	s.DifferenceThreshold = 42

	records := []timelapse.FileRecord{{ID: 1, FileName: "a.jpg"}}
	session, err := s.SessionBuilder().
		WithSequence(timelapse.NewRecords(records)).
		WithSource(timelapse.BitmapSourceFunc(func(timelapse.FileRecord) *timelapse.Bitmap {
			return timelapse.Placeholder(timelapse.MissingPlaceholder)
		})).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 5, session.Cache.Capacity())
	assert.Equal(t, 42, session.Differences.Threshold())
	assert.Equal(t, 40, session.Episodes.MaxRange())
}

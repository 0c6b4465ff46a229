package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

const appName = "trapview"

// Configuration keys
const (
	KeyLogLevel           = "logLevel"
	KeyCacheCapacity      = "cache.capacity"
	KeyDifferenceThresh   = "difference.threshold"
	KeyEpisodeTimeGap     = "episode.time_gap"
	KeyEpisodeSearchRange = "episode.max_search_range"
	KeyDisplayWidth       = "image.display_width"
	KeyImageFilter        = "image_filter"
	KeyImageQuality       = "image_quality"
)

// Settings is the typed, validated view of the configuration
type Settings struct {
	LogLevel            string
	CacheCapacity       int
	DifferenceThreshold int
	EpisodeTimeGap      time.Duration
	MaxEpisodeSearch    int
	DisplayWidth        int
	ImageFilter         string
	ImageQuality        int
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCacheCapacity, timelapse.DefaultCacheCapacity)
	v.SetDefault(KeyDifferenceThresh, timelapse.DefaultDifferenceThreshold)
	v.SetDefault(KeyEpisodeTimeGap, timelapse.DefaultEpisodeGap.String())
	v.SetDefault(KeyEpisodeSearchRange, timelapse.DefaultMaxEpisodeSearch)
	v.SetDefault(KeyDisplayWidth, 0)
	v.SetDefault(KeyImageFilter, "lanczos3")
	v.SetDefault(KeyImageQuality, 85)
}

// Creates the YAML config file
func CreateDefaultConfigFile(filePath string) {
	SetDefaults(viper.GetViper())
	viper.SetConfigType("yaml")
	viper.SafeWriteConfigAs(filePath) // nolint:all
}

func GetConfigDirPath() (string, error) {
	configDirPath := filepath.Join(xdg.ConfigHome, appName)
	if err := os.MkdirAll(configDirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDirPath, nil
}

// GetLogFilePath returns the log file location under the XDG state directory
func GetLogFilePath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// GetRenderCacheDir returns the directory holding rendered terminal frames
func GetRenderCacheDir() string {
	return filepath.Join(xdg.CacheHome, appName, "frames")
}

func ReadConfig(filePath string) error {
	viper.SetConfigFile(filePath)
	utils.Logger.Debug("Reading config file...", zap.String("filePath", filePath))
	if err := viper.ReadInConfig(); err != nil {
		utils.Logger.Error("Failed to read config file.", zap.Error(err))
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load reads the settings from the global viper instance
func Load() Settings {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the settings from v, clamping every value to its supported range
func LoadFrom(v *viper.Viper) Settings {
	SetDefaults(v)

	s := Settings{
		LogLevel:            v.GetString(KeyLogLevel),
		CacheCapacity:       v.GetInt(KeyCacheCapacity),
		DifferenceThreshold: v.GetInt(KeyDifferenceThresh),
		EpisodeTimeGap:      v.GetDuration(KeyEpisodeTimeGap),
		MaxEpisodeSearch:    v.GetInt(KeyEpisodeSearchRange),
		DisplayWidth:        v.GetInt(KeyDisplayWidth),
		ImageFilter:         v.GetString(KeyImageFilter),
		ImageQuality:        v.GetInt(KeyImageQuality),
	}
	s.normalize()
	return s
}

func (s *Settings) normalize() {
	if s.CacheCapacity < 3 {
		utils.Logger.Warn("cache.capacity too small, using 3", zap.Int("configured", s.CacheCapacity))
		s.CacheCapacity = 3
	}
	s.DifferenceThreshold = max(timelapse.MinDifferenceThreshold,
		min(timelapse.MaxDifferenceThreshold, s.DifferenceThreshold))
	if s.EpisodeTimeGap <= 0 {
		s.EpisodeTimeGap = timelapse.DefaultEpisodeGap
	}
	s.EpisodeTimeGap = timelapse.ClampEpisodeGap(s.EpisodeTimeGap)
	if s.MaxEpisodeSearch <= 0 {
		s.MaxEpisodeSearch = timelapse.DefaultMaxEpisodeSearch
	}
	if s.DisplayWidth < 0 {
		s.DisplayWidth = 0
	}
	if s.ImageQuality <= 0 || s.ImageQuality > 100 {
		s.ImageQuality = 85
	}
}

// SessionBuilder returns a timelapse builder preloaded with these settings
func (s Settings) SessionBuilder() *timelapse.SessionBuilder {
	return timelapse.NewSessionBuilder().
		WithCacheCapacity(s.CacheCapacity).
		WithDifferenceThreshold(s.DifferenceThreshold).
		WithEpisodeGap(s.EpisodeTimeGap).
		WithMaxEpisodeSearch(s.MaxEpisodeSearch)
}

/*
Copyright © 2024 Victor Hang
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/config"
	"github.com/Banh-Canh/trapview/internal/library"
	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

var configFile string

var RootCmd = &cobra.Command{
	Use:   "trapview",
	Short: "Browse and compare camera-trap image sequences",
	Long: `
Browse large folders of camera-trap images and videos in the terminal.

Images are ordered by capture time and grouped into episodes (bursts of
images taken close together). Difference views highlight what moved
between an image and its neighbours.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/trapview/config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().Int("threshold", timelapse.DefaultDifferenceThreshold, "difference threshold [0-255]")
	RootCmd.PersistentFlags().Duration("episode-gap", timelapse.DefaultEpisodeGap, "largest gap between images of one episode [15s-10m]")

	_ = viper.BindPFlag(config.KeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyDifferenceThresh, RootCmd.PersistentFlags().Lookup("threshold"))
	_ = viper.BindPFlag(config.KeyEpisodeTimeGap, RootCmd.PersistentFlags().Lookup("episode-gap"))
}

func initConfig() error {
	if configFile == "" {
		configDir, err := config.GetConfigDirPath()
		if err != nil {
			return err
		}
		configFile = filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			config.CreateDefaultConfigFile(configFile)
		}
	}
	if err := config.ReadConfig(configFile); err != nil {
		return err
	}

	if err := utils.InitializeLogger(utils.ParseLevel(viper.GetString(config.KeyLogLevel)), config.GetLogFilePath()); err != nil {
		return err
	}
	utils.Logger.Debug("Configuration loaded", zap.String("file", configFile))
	return nil
}

// openSession scans folder and builds a navigation session over it
func openSession(folder string) (*timelapse.Session, *library.FileSource, config.Settings, error) {
	settings := config.Load()

	records, err := library.Scan(folder)
	if err != nil {
		return nil, nil, settings, err
	}
	source := library.NewFileSource(folder, settings.DisplayWidth, library.ParseFilter(settings.ImageFilter))

	session, err := settings.SessionBuilder().
		WithSequence(timelapse.NewRecords(records)).
		WithSource(source).
		WithLogger(utils.Logger).
		Build()
	if err != nil {
		return nil, nil, settings, fmt.Errorf("failed to open %s: %w", folder, err)
	}
	return session, source, settings, nil
}

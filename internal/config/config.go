package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Poll interval for the watcher (in seconds)
	PollInterval int

	// Renotify controls the now playing cadence: when true the marker is
	// refreshed every poll tick while a track stays open, when false it
	// is announced once per track.
	Renotify bool

	// Station being watched
	Station StationConfig

	// Last.fm API credentials
	LastFM LastFMConfig
}

// StationConfig holds the watched stream's configuration
type StationConfig struct {
	// Name of the station, used in logs and the status output
	Name string

	// URL of the playback page carrying the now playing label
	URL string

	// LabelPattern is the regular expression extracting the label from
	// the page. Its first capture group is the label.
	LabelPattern string

	// Placeholders are the labels the station shows when no identifiable
	// track is playing. They never open a session and are never scrobbled.
	Placeholders []string
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey     string
	APISecret  string
	SessionKey string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("poll_interval", 60)
	v.SetDefault("renotify", true)
	v.SetDefault("station.name", "KINK")
	v.SetDefault("station.url", "https://kink.nl/player/stream.kink")
	v.SetDefault("station.label_pattern", `class="playing-now">([^<]+)<`)
	v.SetDefault("station.placeholders", []string{"KINK - No alternative"})

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("RADIOSCROBBLE")
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		PollInterval: v.GetInt("poll_interval"),
		Renotify:     v.GetBool("renotify"),
		Station: StationConfig{
			Name:         v.GetString("station.name"),
			URL:          v.GetString("station.url"),
			LabelPattern: v.GetString("station.label_pattern"),
			Placeholders: v.GetStringSlice("station.placeholders"),
		},
		LastFM: LastFMConfig{
			APIKey:     v.GetString("lastfm.api_key"),
			APISecret:  v.GetString("lastfm.api_secret"),
			SessionKey: v.GetString("lastfm.session_key"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "radioscrobble")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	// Set config file path
	configDir := getConfigDir()
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("poll_interval", c.PollInterval)
	v.Set("renotify", c.Renotify)
	v.Set("station.name", c.Station.Name)
	v.Set("station.url", c.Station.URL)
	v.Set("station.label_pattern", c.Station.LabelPattern)
	v.Set("station.placeholders", c.Station.Placeholders)
	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.api_secret", c.LastFM.APISecret)
	v.Set("lastfm.session_key", c.LastFM.SessionKey)

	// Write to file
	return v.WriteConfigAs(configFile)
}

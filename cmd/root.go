/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "radioscrobble",
	Short: "Internet radio scrobbler for Last.fm",
	Long: `radioscrobble is an internet radio scrobbler for Last.fm.

It watches the "now playing" label on a live radio stream's playback
page, detects when a song actually starts or ends despite the noisy
poll-based signal, and keeps Last.fm in sync with now playing updates
and scrobbles.

Track transitions and the open session survive restarts: all state
lives in a small on-disk database, so the watcher can be torn down and
resumed between polls without losing or duplicating a scrobble.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

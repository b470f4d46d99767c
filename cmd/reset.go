package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/spf13/cobra"
)

var resetDataDir string

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the watcher's durable state",
	Long: `Clear all durable watcher state: the open session, the previous
sample and the recently scrobbled label history.

The next sample the watcher sees will start a fresh session
unconditionally. The scrobble journal and the Last.fm session key are
kept.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVar(&resetDataDir, "data-dir", "", "Data directory for state (default: ~/.local/share/radioscrobble)")
}

func runReset(cmd *cobra.Command, args []string) error {
	dataDir, err := resolveDataDir(resetDataDir)
	if err != nil {
		return err
	}

	st, err := store.Open(filepath.Join(dataDir, "state.db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := st.Clear(context.Background()); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}

	fmt.Println("Watcher state cleared")
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/jverhoeven/radioscrobble/internal/watcher"
	"github.com/spf13/cobra"
)

var statusDataDir string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the currently open track session",
	Long: `Show the watcher's current state: the open track session, the label
seen on the last poll, and the recently scrobbled labels.

Exit codes:
  0 - A track session is open
  1 - No open session`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDataDir, "data-dir", "", "Data directory for state (default: ~/.local/share/radioscrobble)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dataDir, err := resolveDataDir(statusDataDir)
	if err != nil {
		return err
	}

	st, err := store.Open(filepath.Join(dataDir, "state.db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	status, err := watcher.CurrentStatus(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	if status.Session == nil {
		fmt.Println("No open track session")
		if status.PrevSample != "" {
			fmt.Printf("Last sample: %s\n", status.PrevSample)
		}
		return fmt.Errorf("no open session")
	}

	s := status.Session
	fmt.Printf("Now playing: %s - %s\n", s.Artist, s.Title)
	fmt.Printf("Label:       %s\n", s.Label)
	fmt.Printf("Started:     %s\n", time.Unix(s.StartedAt, 0).Format(time.RFC3339))
	fmt.Printf("Scrobbled:   %v\n", s.Scrobbled)

	return nil
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/spf13/cobra"
)

var (
	logDataDir string
	logLimit   int
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent scrobble submissions",
	Long: `Show the most recent scrobble submissions from the local journal.

Every submission attempt is recorded, including ones the watcher could
not deliver; failed submissions are marked.`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().StringVar(&logDataDir, "data-dir", "", "Data directory for state (default: ~/.local/share/radioscrobble)")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Maximum number of entries to show")
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dataDir, err := resolveDataDir(logDataDir)
	if err != nil {
		return err
	}

	st, err := store.Open(filepath.Join(dataDir, "state.db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	entries, err := st.RecentJournal(ctx, logLimit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No scrobbles recorded yet")
		return nil
	}

	for _, e := range entries {
		marker := " "
		if !e.Accepted {
			marker = "!"
		}
		fmt.Printf("%s %s  %s - %s\n", marker, e.StartedAt.Format(time.RFC3339), e.Artist, e.Title)
	}

	return nil
}

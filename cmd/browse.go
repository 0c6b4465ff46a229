/*
Copyright © 2024 Victor Hang
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Banh-Canh/trapview/internal/library"
	"github.com/Banh-Canh/trapview/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <folder>",
	Short: "Browse a folder of camera-trap images",
	Long: `
Browse a folder of camera-trap images using an interactive TUI.

Use arrow keys or hjkl to step through images, [ and ] to jump between
episodes, d to cycle previous/next differences and c for the combined
difference.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, source, settings, err := openSession(args[0])
		if err != nil {
			fmt.Printf("❌ Error opening folder: %v\n", err)
			os.Exit(1)
		}
		defer session.Close()

		radius := min(2, (settings.CacheCapacity-1)/2)
		prefetcher := library.NewPrefetcher(source, radius, 2)
		if err := ui.Browse(session, prefetcher, args[0], settings); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(browseCmd)
}

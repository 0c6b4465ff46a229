/*
Copyright © 2024 Victor Hang
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Banh-Canh/trapview/internal/config"
	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

var showDuplicates bool

var episodesCmd = &cobra.Command{
	Use:   "episodes <folder>",
	Short: "List the episodes or duplicate runs of a folder",
	Long: `
List the episodes of a folder: runs of images whose capture times are
at most episode.time_gap apart. With --duplicates, list the runs of
consecutive records that point at the same file instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, _, settings, err := openSession(args[0])
		if err != nil {
			fmt.Printf("❌ Error opening folder: %v\n", err)
			os.Exit(1)
		}
		defer session.Close()

		runs := session.Duplicates
		if !showDuplicates {
			// listing wants exact sizes, so scan without the interactive bound
			runs = timelapse.NewClusterIndex(session.Sequence,
				timelapse.EpisodeAdjacency(settings.EpisodeTimeGap), 0, utils.Logger.Named("episodes"))
		}
		fmt.Println(renderRuns(session.Sequence, runs, showDuplicates, settings))
	},
}

func init() {
	episodesCmd.Flags().BoolVar(&showDuplicates, "duplicates", false, "list duplicate runs instead of episodes")
	RootCmd.AddCommand(episodesCmd)
}

func renderRuns(seq timelapse.Sequence, runs *timelapse.ClusterIndex, duplicatesOnly bool, settings config.Settings) string {
	var rows [][]string
	number := 0
	for i := 0; i < seq.Len(); {
		entry := runs.Query(i)
		size := max(1, entry.RunSize)
		next := i + size
		if duplicatesOnly && !entry.InRun() {
			i = next
			continue
		}

		number++
		first, last := seq.At(i), seq.At(next-1)
		rows = append(rows, []string{
			strconv.Itoa(number),
			first.String(),
			last.String(),
			strconv.Itoa(size),
			first.CaptureTime.Format("2006-01-02 15:04:05"),
			last.CaptureTime.Sub(first.CaptureTime).String(),
		})
		i = next
	}

	if len(rows) == 0 {
		return "No runs found."
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#3b4261"))).
		Headers("#", "FIRST", "LAST", "FILES", "START", "SPAN").
		Rows(rows...)

	kind := fmt.Sprintf("%d episodes (gap %s)", len(rows), settings.EpisodeTimeGap)
	if duplicatesOnly {
		kind = fmt.Sprintf("%d duplicate runs", len(rows))
	}
	return t.String() + "\n" + kind
}

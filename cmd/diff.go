/*
Copyright © 2024 Victor Hang
*/
package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

var (
	diffMode   string
	diffOutput string
)

var diffCmd = &cobra.Command{
	Use:   "diff <folder> <index>",
	Short: "Write the difference image of one file",
	Long: `
Compute the difference between the image at <index> (0-based, in capture
time order) and its previous or next neighbour, or the combined difference
against both, and write it as a PNG.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("❌ Invalid index %q\n", args[1])
			os.Exit(1)
		}

		session, _, _, err := openSession(args[0])
		if err != nil {
			fmt.Printf("❌ Error opening folder: %v\n", err)
			os.Exit(1)
		}
		defer session.Close()

		if _, err := session.MoveTo(index); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

		img, err := computeDiff(session.Differences, diffMode)
		if err != nil {
			fmt.Printf("❌ Cannot compute %s difference: %v\n", diffMode, err)
			os.Exit(1)
		}
		if err := writePNG(diffOutput, img); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}

		lit := litPixels(img)
		utils.Logger.Info("Difference written", zap.String("file", diffOutput), zap.Int("lit", lit))
		fmt.Printf("✅ Wrote %s (%d changed pixels, threshold %d)\n", diffOutput, lit, session.Differences.Threshold())
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffMode, "mode", "previous", "neighbour to compare with: previous, next or combined")
	diffCmd.Flags().StringVarP(&diffOutput, "out", "o", "difference.png", "output PNG file")
	RootCmd.AddCommand(diffCmd)
}

func computeDiff(engine *timelapse.DifferenceEngine, mode string) (*image.Gray, error) {
	switch mode {
	case "previous", "prev":
		return engine.ComputeDifference(-1)
	case "next":
		return engine.ComputeDifference(1)
	case "combined":
		return engine.ComputeCombinedDifference(engine.Threshold())
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func litPixels(img *image.Gray) int {
	lit := 0
	for _, v := range img.Pix {
		if v > 0 {
			lit++
		}
	}
	return lit
}

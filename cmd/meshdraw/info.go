package main

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/meshdraw/pkg/engine"
	"github.com/chazu/meshdraw/pkg/format"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display geometry and integrity information about an STL file",
	Long:  "Show dimensions, volume, surface area, triangle count and mesh integrity findings.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print the metadata as JSON")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	data, ext, err := readInput(filename)
	if err != nil {
		return err
	}

	eng := newEngine()
	f, err := eng.Validate(data, ext)
	if err != nil {
		return err
	}
	m, err := eng.Parse(data, f)
	if err != nil {
		return err
	}
	s := eng.Summarize(m)
	report := eng.Check(m, s)

	out := cmd.OutOrStdout()
	if infoJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(engine.NewMetadata(s))
	}

	fmt.Fprintln(out, "STL File Information")
	fmt.Fprintln(out, "====================")
	if m.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", m.Name)
	}
	fmt.Fprintf(out, "File: %s\n", filename)
	fmt.Fprintf(out, "Format: %s (%s)\n\n", f, format.Detect(data).MIME.Value)

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Triangles: %d\n", s.TriangleCount)
	fmt.Fprintf(out, "  Degenerate triangles: %d\n", s.Degenerate)
	fmt.Fprintf(out, "  Surface Area: %.3f mm²\n", s.SurfaceArea)
	fmt.Fprintf(out, "  Volume: %.3f cm³\n", s.VolumeCm3())
	fmt.Fprintf(out, "  Watertight: %t\n\n", report.Watertight)

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", formatVec(s.Bounds.Min))
	fmt.Fprintf(out, "  Max: %s\n", formatVec(s.Bounds.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", formatVec(s.Center))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %.3f mm\n", s.Dimensions.X)
	fmt.Fprintf(out, "  Depth (Y): %.3f mm\n", s.Dimensions.Y)
	fmt.Fprintf(out, "  Height (Z): %.3f mm\n", s.Dimensions.Z)

	if len(report.Errors)+len(report.Warnings) > 0 {
		fmt.Fprintln(out, "\nFindings:")
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  error: %v\n", e)
		}
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  warning: %v\n", w)
		}
	}
	return report.Err()
}

func formatVec(v v3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	drawingOut   string
	drawingTitle string
)

var drawingCmd = &cobra.Command{
	Use:   "drawing [file]",
	Short: "Export a three-view engineering drawing as SVG or DXF",
	Long: "Lay out the front, top and right side views in third-angle projection with " +
		"overall dimensions. The output format follows the extension of --out (.svg or .dxf).",
	Args: cobra.ExactArgs(1),
	RunE: runDrawing,
}

func init() {
	drawingCmd.Flags().StringVarP(&drawingOut, "out", "o", "", "output file (default <input>.svg)")
	drawingCmd.Flags().StringVar(&drawingTitle, "title", "", "sheet title (default solid name)")
	rootCmd.AddCommand(drawingCmd)
}

func runDrawing(cmd *cobra.Command, args []string) error {
	data, ext, err := readInput(args[0])
	if err != nil {
		return err
	}
	out := drawingOut
	if out == "" {
		out = baseName(args[0]) + ".svg"
	}

	sheet, err := newEngine().Drawing(cmd.Context(), data, ext)
	if err != nil {
		return err
	}
	switch {
	case drawingTitle != "":
		sheet.Title = drawingTitle
	case sheet.Title == "":
		sheet.Title = baseName(args[0])
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".dxf":
		err = sheet.SaveDXF(out)
	case ".svg":
		var f *os.File
		f, err = os.Create(out)
		if err != nil {
			return err
		}
		err = sheet.WriteSVG(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	default:
		return fmt.Errorf("unsupported drawing format %q (want .svg or .dxf)", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}

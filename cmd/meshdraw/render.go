package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/view"
	"github.com/spf13/cobra"
)

var (
	renderOut     string
	renderDataURI bool
	renderMesh    bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render front, side, top and isometric views of an STL file",
	Long: "Render the four canonical 800×600 views as PNG files plus a metadata.json " +
		"with the part dimensions, volume and triangle count.",
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "output directory")
	renderCmd.Flags().BoolVar(&renderDataURI, "data-uri", false, "print a JSON document with data URIs instead of writing files")
	renderCmd.Flags().BoolVar(&renderMesh, "mesh", false, "with --data-uri, also embed the centered mesh as flat vertex arrays")
	rootCmd.AddCommand(renderCmd)
}

// viewDocument is the --data-uri output.
type viewDocument struct {
	Front    string       `json:"front"`
	Side     string       `json:"side"`
	Top      string       `json:"top"`
	Iso      string       `json:"iso"`
	Metadata any          `json:"metadata"`
	Warnings []string     `json:"warnings,omitempty"`
	Mesh     *kernel.Flat `json:"mesh,omitempty"`
}

func runRender(cmd *cobra.Command, args []string) error {
	data, ext, err := readInput(args[0])
	if err != nil {
		return err
	}
	res, err := newEngine().Generate(cmd.Context(), data, ext)
	if err != nil {
		return err
	}

	if renderDataURI {
		doc := viewDocument{
			Front:    res.Front.DataURI(),
			Side:     res.Side.DataURI(),
			Top:      res.Top.DataURI(),
			Iso:      res.Iso.DataURI(),
			Metadata: res.Metadata,
		}
		for _, w := range res.Warnings {
			doc.Warnings = append(doc.Warnings, w.Error())
		}
		if renderMesh {
			doc.Mesh = kernel.Center(res.Mesh, res.Summary.Center).Flatten()
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(doc)
	}

	if err := os.MkdirAll(renderOut, 0o755); err != nil {
		return err
	}
	views := res.Views()
	for _, k := range view.Kinds {
		path := filepath.Join(renderOut, k.String()+".png")
		if err := os.WriteFile(path, views.Get(k).PNG, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	meta, err := json.MarshalIndent(res.Metadata, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(renderOut, "metadata.json")
	if err := os.WriteFile(path, append(meta, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
	"github.com/pdiddy/topic-explainer/internal/notebook"
)

var exportCmd = &cobra.Command{
	Use:   "export [notebooks...]",
	Short: "Render notebooks as standalone HTML pages",
	Long: `Export writes an HTML rendering next to each notebook (a.ipynb becomes
a.html). Without arguments every notebook in the outputs directory is
exported.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("outputs-dir", "outputs", "directory searched when no notebooks are given")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("outputs-dir")
	paths, err := notebookPaths(args, dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no notebooks found in %s", dir)
	}

	failed := exportBatch(paths, cmd.OutOrStdout())
	if failed > 0 {
		return fmt.Errorf("%d notebook(s) failed export", failed)
	}
	return nil
}

// exportBatch renders each notebook and returns the number of failures.
func exportBatch(paths []string, w io.Writer) int {
	failed := 0
	for _, path := range paths {
		dest, err := exportOne(path)
		if err != nil {
			fmt.Fprintf(w, "failed: %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "exported: %s\n", dest)
	}
	return failed
}

func exportOne(path string) (string, error) {
	nb, err := notebook.ReadFile(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	title := strings.TrimSuffix(filepath.Base(path), notebook.Extension)
	if err := notebook.ExportHTML(nb, title, &buf); err != nil {
		return "", err
	}
	dest := notebook.ExportName(path)
	if err := fsutil.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/blastsets/internal/setstore"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Manage the local SQLite snapshot of target sets",
	Long: `Sets maintains the SQLite snapshot used by --backend sqlite. Import
collections from YAML or GMT files, list what a label contains, and
export it again.`,
}

// --- import subcommand ---

var setsImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import target-set collections into the snapshot",
	Long: `Import reads collection files into the snapshot named by --db.

YAML files carry their own label:

  label: Keyword
  universe: [GENE1, GENE2]
  sets:
    - id: KW-0053
      name: Apoptosis
      members: [TP53, BAX, CASP3]

GMT files (name, description, members, tab-separated) use --label.
Unchanged files are skipped on subsequent runs; changed files replace the
sets they contributed before.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSetsImport,
}

func runSetsImport(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("label")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Import(context.Background(), args, label, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", summary.Failed)
	}
	return nil
}

// --- list subcommand ---

var setsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the target sets of a label",
	RunE:  runSetsList,
}

func runSetsList(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("sets")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(context.Background(), label)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Printf("No %s sets found.\n", label)
		return nil
	}
	return writeSetList(os.Stdout, summaries)
}

func writeSetList(w io.Writer, summaries []setstore.SetSummary) error {
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.Name, s.Size); err != nil {
			return err
		}
	}
	return nil
}

// --- export subcommand ---

var setsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the target sets of a label as YAML or JSON",
	Long: `Export writes the sets of a label in the import format to stdout or
--out, so a snapshot can be shared and re-imported elsewhere.`,
	RunE: runSetsExport,
}

func runSetsExport(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("sets")
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if outPath == "" {
		return store.Export(context.Background(), label, format, os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := store.Export(context.Background(), label, format, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %s sets to %s\n", label, outPath)
	return nil
}

func init() {
	setsImportCmd.Flags().String("label", "Keyword", "label for GMT files and YAML files without one")
	setsListCmd.Flags().StringP("sets", "t", "Keyword", "target-set label to list")
	setsExportCmd.Flags().StringP("sets", "t", "Keyword", "target-set label to export")
	setsExportCmd.Flags().String("format", setstore.FormatYAML, "export format: yaml or json")
	setsExportCmd.Flags().String("out", "", "output file (default: stdout)")

	setsCmd.AddCommand(setsImportCmd)
	setsCmd.AddCommand(setsListCmd)
	setsCmd.AddCommand(setsExportCmd)

	rootCmd.AddCommand(setsCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odavlstudio/odavl/internal/corpus"
)

var (
	listCorpus string
	listOutput string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List corpus fixtures and their declared defects",
		Long: `List loads every fixture manifest in the corpus and prints each
fixture's name, case count and declared defect kinds. A manifest that
fails validation aborts the listing.`,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVarP(&listCorpus, "corpus", "c", "", "Corpus directory (defaults to the configured corpus_dir)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	fixtures, err := corpus.Load(corpusDir(listCorpus))
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	switch listOutput {
	case "json":
		return printJSON(listViews(fixtures))
	case "text":
		fmt.Print(renderList(fixtures))
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json)", listOutput)
	}
	return nil
}

// fixtureView is the JSON shape of one listing entry.
type fixtureView struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Cases       []string `json:"cases"`
	Defects     []string `json:"defects,omitempty"`
	Race        bool     `json:"race,omitempty"`
}

func listViews(fixtures []*corpus.Fixture) []fixtureView {
	views := make([]fixtureView, 0, len(fixtures))
	for _, fx := range fixtures {
		v := fixtureView{
			Name:        fx.Name,
			Description: fx.Manifest.Description,
			Race:        fx.NeedsRace(),
		}
		for _, c := range fx.Manifest.Cases {
			v.Cases = append(v.Cases, c.Name)
		}
		for _, k := range fx.DefectKinds() {
			v.Defects = append(v.Defects, string(k))
		}
		views = append(views, v)
	}
	return views
}

// renderList formats the fixture listing.
func renderList(fixtures []*corpus.Fixture) string {
	if len(fixtures) == 0 {
		return "No fixtures found.\n"
	}

	var sb strings.Builder
	for _, fx := range fixtures {
		kinds := fx.DefectKinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		defects := "none"
		if len(names) > 0 {
			defects = strings.Join(names, ", ")
		}

		fmt.Fprintf(&sb, "%-16s %d case(s)   %s\n", fx.Name, len(fx.Manifest.Cases), defects)
		if fx.Manifest.Description != "" {
			fmt.Fprintf(&sb, "    %s\n", fx.Manifest.Description)
		}
	}
	fmt.Fprintf(&sb, "\n%d fixture(s)\n", len(fixtures))
	return sb.String()
}

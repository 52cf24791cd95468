package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/research-agent/internal/model"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a stored run to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = result.ID + ".xlsx"
		}
		if err := writeWorkbook(result, out); err != nil {
			return err
		}
		fmt.Println("wrote " + out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default <id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

// writeWorkbook writes a run as a three-sheet workbook: an overview sheet
// with the question, synthesis and stats, a sheet of ranked search
// results, and a sheet of extracted articles.
func writeWorkbook(result *model.ResearchResult, path string) error {
	f := xlsx.NewFile()

	overview, err := f.AddSheet("Overview")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	addPair(overview, "Run ID", result.ID)
	addPair(overview, "Question", result.Query)
	addPair(overview, "Strategy", result.Plan.Strategy)
	addPair(overview, "Queries used", strconv.Itoa(result.Stats.QueriesUsed))
	addPair(overview, "Search results", strconv.Itoa(result.Stats.SearchResults))
	addPair(overview, "Articles", strconv.Itoa(result.Stats.Articles))
	addPair(overview, "Duration (ms)", strconv.FormatInt(result.Stats.DurationMS, 10))
	addPair(overview, "Created", result.CreatedAt.Format("2006-01-02 15:04:05"))
	addPair(overview, "", "")
	addPair(overview, "Synthesis", result.Synthesis)

	results, err := f.AddSheet("Search Results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	addRow(results, "Title", "URL", "Provider", "Score", "Snippet")
	for _, r := range result.SearchResults {
		score := ""
		if r.Score != nil {
			score = strconv.FormatFloat(*r.Score, 'f', 1, 64)
		}
		addRow(results, r.Title, r.URL, r.Provider, score, r.Snippet)
	}

	articles, err := f.AddSheet("Articles")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	addRow(articles, "Title", "URL", "Method", "Summary", "Content")
	for _, a := range result.Articles {
		addRow(articles, a.Title, a.URL, a.Method, a.Summary, a.Content)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func addPair(sheet *xlsx.Sheet, key, value string) {
	addRow(sheet, key, value)
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

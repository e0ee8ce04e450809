package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fallaxis/jurimetrics/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract <documents.json>",
	Short: "Extract factor and citation records from decision documents",
	Long: `Extract reads a JSON array of decision documents, scores each against
the factor catalog, detects citations, and persists the results. Use "-"
to read from stdin.

Each document carries decision_id, entity_id, text, and optionally topic,
outcome and decided_at.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	docs, err := readDocuments(args[0])
	if err != nil {
		return err
	}

	result, err := app.service.IngestDocuments(ctx, docs)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.DecisionID, f.Message)
	}
	return printJSON(result)
}

func readDocuments(path string) ([]pipeline.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var docs []pipeline.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents in input")
	}
	return docs, nil
}

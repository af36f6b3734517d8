package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ontorag/internal/service"
	"ontorag/internal/tui"
)

const chunkPreviewChars = 500

func ingestCmd(cfgPath *string) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Index a text document and extract its ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Ingest(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printIngest(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	return cmd
}

func queryCmd(cfgPath *string) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "query QUESTION",
		Short: "Answer a question about the last ingested document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.Ask(cmd.Context(), strings.Join(args, " "))
			if service.IsNotIngested(err) {
				return fmt.Errorf("nothing ingested under store %q yet, run `ontorag ingest FILE` first: %w", a.svc.StoreName(), err)
			}
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printQuery(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	return cmd
}

func tuiCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [FILE]",
		Short: "Open the interactive UI, ingesting FILE first when given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runTUI(cmd, *cfgPath, file)
		},
	}
}

func openApp(cmd *cobra.Command, cfgPath string) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return buildApp(cmd.Context(), cfg)
}

func runTUI(cmd *cobra.Command, cfgPath, file string) error {
	a, err := openApp(cmd, cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	var header tui.Header
	if file != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ingesting %s...\n", file)
		res, err := a.svc.Ingest(cmd.Context(), file)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		header = tui.HeaderFromIngest(res)
	} else {
		sess, err := a.svc.Session(cmd.Context())
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		header = tui.Header{
			Title:         sess.Metadata.Title,
			Author:        sess.Metadata.Author,
			Chunks:        sess.ChunkCount,
			Entities:      sess.Ontology.EntityCount(),
			Relationships: len(sess.Ontology.Relationships),
			Summary:       sess.Summary,
		}
	}

	_, err = tea.NewProgram(tui.New(a.svc, header), tea.WithAltScreen()).Run()
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printIngest(w io.Writer, res *service.IngestResult) error {
	fmt.Fprintf(w, "Run:      %s\n", res.RunID)
	fmt.Fprintf(w, "Store:    %s\n", res.Store)
	fmt.Fprintf(w, "Title:    %s\n", res.Metadata.Title)
	fmt.Fprintf(w, "Author:   %s\n", res.Metadata.Author)
	fmt.Fprintf(w, "Chunks:   %d\n", res.ChunkCount)
	if len(res.Persons) > 0 {
		fmt.Fprintf(w, "People:   %s\n", strings.Join(res.Persons, ", "))
	}
	if res.Malformed > 0 {
		fmt.Fprintf(w, "Warning:  %d chunk extraction(s) returned unparseable output\n", res.Malformed)
	}
	if res.Summary != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", res.Summary)
	}
	fmt.Fprintln(w, "\nOntology:")
	return writeJSON(w, res.Ontology)
}

func printQuery(w io.Writer, res *service.QueryResult) error {
	fmt.Fprintf(w, "Answer (%s):\n%s\n", res.Outcome, res.Answer)
	if len(res.Facts) > 0 {
		fmt.Fprintln(w, "\nOntology facts:")
		for _, f := range res.Facts {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	for i, c := range res.Chunks {
		sim := 0.0
		if i < len(res.Similarities) {
			sim = res.Similarities[i]
		}
		fmt.Fprintf(w, "\n--- Chunk %d (similarity %.3f) ---\n%s\n", i+1, sim, truncate(c, chunkPreviewChars))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "ontorag [FILE]",
		Short: "Ask questions about a text document with retrieval and ontology facts",
		Long: `ontorag ingests a plain-text document, indexes it for semantic search,
extracts a small ontology of its people, places and relationships, and answers
questions grounded in the retrieved passages and matching facts.

Given a FILE, it ingests it and opens the interactive terminal UI.

Environment variables:
  HF_TOKEN                      API key for the chat model (name set by generator.api_key_env)
  ONTORAG_STORE_NAME            Store name for persisted artifacts
  ONTORAG_BLOB_STORE            filesystem | memory | sqlite | s3
  ONTORAG_TOP_K                 Chunks retrieved per question
  ONTORAG_RELEVANCE_THRESHOLD   Minimum cosine similarity to answer
  ONTORAG_LOG_LEVEL             debug | info | warn | error`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runTUI(cmd, cfgPath, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/ontorag/config.yaml)")

	rootCmd.AddCommand(ingestCmd(&cfgPath))
	rootCmd.AddCommand(queryCmd(&cfgPath))
	rootCmd.AddCommand(tuiCmd(&cfgPath))

	return rootCmd
}

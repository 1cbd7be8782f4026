package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/ingest"
	"github.com/agentic-research/mggraph/internal/workspace"
)

var buildJSON bool

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Print the interchange document instead of grammar text")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [grammar-file]",
	Short: "Classify a grammar and write its derivation graph to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(cmd, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
			out := cmd.OutOrStdout()
			if buildJSON {
				return printJSON(cmd, s.Document())
			}
			snap, err := s.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, s.Text())
			_, err = fmt.Fprintf(out, "\n%d items, %d nodes, %d edges (%s store)\n",
				s.Grammar().Len(), len(snap.Nodes), len(snap.Edges), a.cfg.Store.Backend)
			return err
		})
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [grammar-file] [jsonpath]",
	Short: "Evaluate a JSONPath expression against a grammar's interchange document",
	Long: `Classifies the grammar and evaluates the expression against its
interchange document, for example:

  mggraph inspect grammar.mg '$.items[*].morph'
  mggraph inspect grammar.mg '$.items[?(@.bundle[0].rel == "LMerge")].morph'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readFile(args[0])
		if err != nil {
			return err
		}
		g, report := ingest.Classify(src)
		printReport(cmd, report)

		res, err := ingest.Select(g, args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(res, 2))
		return err
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/collection"
	"github.com/agentic-research/mggraph/internal/ingest"
)

var (
	exampleTitle string
	exampleLang  string
)

func init() {
	collectionSaveCmd.Flags().StringVar(&exampleTitle, "title", "", "Title of the example")
	collectionSaveCmd.Flags().StringVar(&exampleLang, "lang", "", "Language of the example")
	_ = collectionSaveCmd.MarkFlagRequired("title")

	collectionCmd.AddCommand(collectionSaveCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionShowCmd)
	rootCmd.AddCommand(collectionCmd)
}

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage saved example grammars",
}

var collectionSaveCmd = &cobra.Command{
	Use:   "save [grammar-file]",
	Short: "Save a grammar to the example collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := openCollection()
		if err != nil {
			return err
		}
		src, err := readFile(args[0])
		if err != nil {
			return err
		}
		g, report := ingest.Classify(src)
		printReport(cmd, report)
		if err := coll.Save(collection.FromGrammar(exampleTitle, exampleLang, g)); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %q (%d items)\n", exampleTitle, g.Len())
		return err
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved example grammars",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		coll, err := openCollection()
		if err != nil {
			return err
		}
		all, err := coll.List()
		if err != nil {
			return err
		}
		for _, ex := range all {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d items\n", ex.Title, ex.Lang, len(ex.Grammar))
		}
		return nil
	},
}

var collectionShowCmd = &cobra.Command{
	Use:   "show [title]",
	Short: "Print a saved example grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := openCollection()
		if err != nil {
			return err
		}
		ex, ok, err := coll.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no example titled %q", args[0])
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), collection.Text(ex))
		return err
	},
}

// openCollection opens the example collection without touching the graph
// store.
func openCollection() (*collection.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return collection.Open(cfg.ResolvedDataDir())
}

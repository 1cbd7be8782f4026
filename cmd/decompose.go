package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/workspace"
)

var (
	showScores bool

	affixFlag   string
	splitFlag   int
	indicesFlag []int
)

func init() {
	for _, c := range []*cobra.Command{suggestCmd, decomposeCmd} {
		c.Flags().BoolVar(&similarity.Weighted, "weighted", false, "Weight feature matches by position")
		c.Flags().BoolVar(&similarity.ExcludeSelf, "exclude-self", false, "Leave an item's self-similarity out of its average")
	}
	suggestCmd.Flags().BoolVar(&showScores, "scores", false, "Print every candidate with its average similarity")

	decomposeCmd.Flags().StringVar(&affixFlag, "affix", "", "Affix to factor out, e.g. -s or be-")
	decomposeCmd.Flags().IntVar(&splitFlag, "split", 0, "Number of leading features kept on each root")
	decomposeCmd.Flags().IntSliceVar(&indicesFlag, "indices", nil, "Item indices to decompose (default: suggested items)")
	_ = decomposeCmd.MarkFlagRequired("affix")

	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(decomposeCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [grammar-file]",
	Short: "List affixes shared by syntactically similar items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(cmd, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
			out := cmd.OutOrStdout()
			if showScores {
				cands := s.Candidates()
				for _, affix := range sortedKeys(cands) {
					_, _ = fmt.Fprintf(out, "%s\n", affix)
					for _, c := range cands[affix] {
						_, _ = fmt.Fprintf(out, "  %3d  %.4f  %s\n", c.Index, c.Similarity, s.Grammar().Items()[c.Index].Morph)
					}
				}
				return nil
			}
			sugg := s.Suggestions()
			if len(sugg) == 0 {
				_, err := fmt.Fprintln(out, "no suggestions")
				return err
			}
			for _, affix := range sortedKeys(sugg) {
				_, _ = fmt.Fprintf(out, "%s\t%v\n", affix, sugg[affix])
			}
			return nil
		})
	},
}

var decomposeCmd = &cobra.Command{
	Use:   "decompose [grammar-file]",
	Short: "Factor an affix out of a set of items and rebuild the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(cmd, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
			before := s.Size()
			if len(indicesFlag) == 0 {
				s.Suggestions()
			}
			report, err := s.Decompose(cmd.Context(), affixFlag, splitFlag, indicesFlag)
			printReport(cmd, report)
			if err != nil {
				return err
			}
			after := s.Size()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, s.Text())
			_, err = fmt.Fprintf(out, "\nmdl %.2f -> %.2f\n", before.Size, after.Size)
			return err
		})
	},
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

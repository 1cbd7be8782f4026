package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/mcptools"
	"github.com/agentic-research/mggraph/internal/workspace"
)

var (
	pathFrom string
	pathTo   string
)

func init() {
	pathsCmd.Flags().StringVar(&pathFrom, "from", mcptools.DefaultFrom, "Start state")
	pathsCmd.Flags().StringVar(&pathTo, "to", mcptools.DefaultTo, "End state")

	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(pathsCmd)
}

var sizeCmd = &cobra.Command{
	Use:   "size [grammar-file]",
	Short: "Print the minimum description length of a grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(cmd, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
			return printJSON(cmd, s.Size())
		})
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths [grammar-file]",
	Short: "List all and shortest derivation paths between two states",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(cmd, args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
			p, err := s.Pathways(cmd.Context(), pathFrom, pathTo)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "all paths %s -> %s:\n", pathFrom, pathTo)
			for _, path := range p.All {
				_, _ = fmt.Fprintf(out, "  %s\n", path)
			}
			_, _ = fmt.Fprintln(out, "shortest:")
			for _, path := range p.Shortest {
				_, _ = fmt.Fprintf(out, "  %s\n", path)
			}
			return nil
		})
	},
}

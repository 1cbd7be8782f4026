package cmd

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mggraph/internal/mcptools"
	"github.com/agentic-research/mggraph/internal/workspace"
)

// Version is reported to MCP clients.
var Version = "dev"

var (
	serveGrammar string
	serveResume  bool
)

func init() {
	serveCmd.Flags().StringVar(&serveGrammar, "grammar", "", "Grammar file to build before serving")
	serveCmd.Flags().BoolVar(&serveResume, "resume", false, "Start from the most recently built grammar")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the grammar tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			a   *app
			err error
		)
		if serveGrammar != "" {
			a, err = loadFile(cmd, serveGrammar)
		} else {
			a, err = openApp(cmd)
		}
		if err != nil {
			return err
		}
		defer a.Close()

		if serveResume && serveGrammar == "" {
			if err := resume(cmd, a); err != nil {
				a.log.Warn("no grammar to resume", "error", err)
			}
		}

		s := mcptools.NewServer("mggraph", Version, a.ws, a.coll)
		a.log.Info("serving MCP on stdio", "store", a.cfg.Store.Backend)
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

func resume(cmd *cobra.Command, a *app) error {
	g, err := a.coll.LoadRecent()
	if err != nil {
		return err
	}
	return a.ws.With(cmd.Context(), func(s *workspace.Session) error {
		report, err := s.LoadGrammar(cmd.Context(), g)
		printReport(cmd, report)
		if err == nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "resumed %d items\n", g.Len())
		}
		return err
	})
}

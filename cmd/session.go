package cmd

import (
	"fmt"
	"strings"

	"tgbridge/pkg/config"
	"tgbridge/pkg/telegram/session"

	"github.com/spf13/cobra"
)

var exportPath string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the Telegram session",
}

var sessionExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured session as a gotd session file",
	Long: `Loads the configured session (a Telethon string session, a Telethon .session
database or a gotd session file) and writes it to --out in gotd's JSON format.
Point telegram.session_name at the result to run without the original file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		out := strings.TrimSpace(exportPath)
		if out == "" {
			return fmt.Errorf("--out is required")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cred, err := session.Open(cmd.Context(), cfg.Telegram)
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		if err := session.Export(cmd.Context(), cred.Storage, out); err != nil {
			return fmt.Errorf("export session: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %s session to %s\n", cred.Source, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionExportCmd)
	sessionExportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "destination file")
}

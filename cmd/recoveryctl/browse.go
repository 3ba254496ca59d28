package main

import (
	"context"
	"fmt"
	"os"

	"recoveryctl/internal/browse"
	"recoveryctl/internal/log"
	"recoveryctl/internal/scan"
	"recoveryctl/internal/tui"

	"github.com/spf13/cobra"
)

// exitError ends the process with a status and no message
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewBrowseCmd creates the browse command. The chosen path is written to
// stdout and the menu to stderr, so the command can be used in scripts.
func NewBrowseCmd() *cobra.Command {
	var (
		ext      string
		dirsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "browse [dir]",
		Short: "Pick a file or folder and print its path",
		Long: `Browse a directory tree and print the chosen path.

By default every file can be chosen. --ext limits the choices to names with
that suffix and --dirs offers folders only. The command exits with status 1
when the browse is cancelled or finds nothing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := cfg.Storage.Primary
			if len(args) == 1 {
				base = args[0]
			}
			if dirsOnly {
				ext = "/"
			}

			var result browse.Result
			err := runConsole(cmd, func(ctx context.Context, s *session) {
				scanner := &scan.Scanner{ShowHidden: cfg.Browse.ShowHidden, HiddenPrefix: cfg.Browse.HiddenPrefix}
				result = browse.New(scanner, s.presenter).SelectExt(base, ext, []string{"Choose a file"})
			}, tui.WithOutput(os.Stderr))
			if err != nil {
				return err
			}

			log.LogWithContext(cmd.Context()).With(
				log.F("base", base),
				log.F("status", result.Status.String()),
			).Info("Browse finished")
			if !result.OK() {
				return exitError{code: 1}
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&ext, "ext", "", "only offer files with this suffix, for example .zip")
	cmd.Flags().BoolVar(&dirsOnly, "dirs", false, "offer folders only")

	return cmd
}

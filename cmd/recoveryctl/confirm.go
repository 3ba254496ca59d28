package main

import (
	"context"
	"os"

	"recoveryctl/internal/confirm"
	"recoveryctl/internal/log"
	"recoveryctl/internal/tui"

	"github.com/spf13/cobra"
)

// NewConfirmCmd creates the confirm command, which asks the operator to
// approve an action and reports the answer in the exit status
func NewConfirmCmd() *cobra.Command {
	var (
		title       string
		affirmative string
	)

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Ask the operator to approve an action",
		Long: `Ask the operator to approve an action.

The prompt follows the console's confirmation markers: with the no-confirm
marker present it succeeds without asking. The command exits with status 0
when approved and 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ok bool
			err := runConsole(cmd, func(ctx context.Context, s *session) {
				gate := confirm.New(s.presenter,
					cfg.SettingsPath(cfg.Markers.NoConfirm),
					cfg.SettingsPath(cfg.Markers.ManyConfirm))
				ok = gate.Confirm(title, affirmative)
			}, tui.WithOutput(os.Stderr))
			if err != nil {
				return err
			}

			log.LogWithContext(cmd.Context()).With(
				log.F("title", title),
				log.F("confirmed", ok),
			).Info("Confirmation finished")
			if !ok {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "Confirm?", "prompt title")
	cmd.Flags().StringVarP(&affirmative, "yes", "y", "Yes", "label of the approving choice")

	return cmd
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/pinpoint/internal/tracker"
)

func newClearDeletedCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-deleted",
		Short: "Empty the server's archive of deleted records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.headless(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result, err := s.ClearDeleted(cmd.Context())
			if err != nil {
				var limited *tracker.RateLimitError
				if errors.As(err, &limited) {
					return fmt.Errorf("clear-deleted is rate limited, retry in %s", limited.RetryAfter)
				}
				return fmt.Errorf("clear deleted: %w", err)
			}
			if !result.Cleared {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clear")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d deleted record(s)\n", result.RemovedCount)
			return nil
		},
	}
}

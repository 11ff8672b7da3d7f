package cmd

import (
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var ef eventFlags

	cmd := &cobra.Command{
		Use:   "submit [text|-]",
		Short: "Submit an event with a single HTTP request",
		Long: `Submit posts the event text to receivers/simple.

Without an argument, or with "-", the event is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data string
			if len(args) == 1 && args[0] != "-" {
				data = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				data = strings.TrimRight(string(b), "\n")
			}

			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Receiver().Submit(cmd.Context(), ef.index, ef.args(), data); err != nil {
				return err
			}
			printf(cmd, "submitted %s\n", humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

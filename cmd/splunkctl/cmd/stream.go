package cmd

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStreamCmd(opts *rootOptions) *cobra.Command {
	var ef eventFlags

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream stdin into an index over receivers/stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			conn, err := svc.Receiver().Attach(cmd.Context(), ef.index, ef.args())
			if err != nil {
				return err
			}
			n, err := io.Copy(conn, cmd.InOrStdin())
			if cerr := conn.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			printf(cmd, "streamed %s\n", humanize.Bytes(uint64(n)))
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

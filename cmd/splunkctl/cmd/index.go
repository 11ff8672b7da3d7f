package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	splunk "github.com/fuyufjh/splunk-sdk-go"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
	}
	cmd.AddCommand(newIndexListCmd(opts))
	cmd.AddCommand(newIndexInfoCmd(opts))
	cmd.AddCommand(newIndexCreateCmd(opts))
	cmd.AddCommand(newIndexRemoveCmd(opts))
	cmd.AddCommand(newIndexRollCmd(opts))
	cmd.AddCommand(newIndexCleanCmd(opts))
	cmd.AddCommand(newIndexUploadCmd(opts))
	return cmd
}

func mbytes(mb int) string {
	return humanize.IBytes(uint64(mb) << 20)
}

func newIndexListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexes with their size and event count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			indexes, err := svc.Indexes(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEVENTS\tSIZE\tDISABLED")
			for _, idx := range indexes {
				c := idx.Content()
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", idx.Name(), humanize.Comma(c.TotalEventCount),
					mbytes(c.CurrentDBSizeMB), c.Disabled)
			}
			return w.Flush()
		},
	}
}

func newIndexInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show settings of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			idx, err := svc.Index(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c := idx.Content()
			printf(cmd, "name:           %s\n", idx.Name())
			printf(cmd, "events:         %s\n", humanize.Comma(c.TotalEventCount))
			printf(cmd, "size:           %s of %s\n", mbytes(c.CurrentDBSizeMB), mbytes(c.MaxTotalDataSizeMB))
			printf(cmd, "retention:      %s\n", time.Duration(c.FrozenTimePeriodInSecs)*time.Second)
			printf(cmd, "home path:      %s\n", c.HomePathExpanded)
			printf(cmd, "cold path:      %s\n", c.ColdPathExpanded)
			printf(cmd, "thawed path:    %s\n", c.ThawedPathExpanded)
			printf(cmd, "max hot buckets: %s\n", c.MaxHotBuckets)
			if !c.MinTime.IsZero() {
				printf(cmd, "earliest event: %s (%s)\n", c.MinTime.Format(time.RFC3339), humanize.Time(c.MinTime))
			}
			if !c.MaxTime.IsZero() {
				printf(cmd, "latest event:   %s (%s)\n", c.MaxTime.Format(time.RFC3339), humanize.Time(c.MaxTime))
			}
			printf(cmd, "disabled:       %t\n", c.Disabled)
			printf(cmd, "internal:       %t\n", c.IsInternal)
			return nil
		},
	}
}

func newIndexCreateCmd(opts *rootOptions) *cobra.Command {
	var maxSizeMB int
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			var settings splunk.Args
			if maxSizeMB > 0 {
				settings.Add("maxTotalDataSizeMB", strconv.Itoa(maxSizeMB))
			}
			if retention > 0 {
				settings.Add("frozenTimePeriodInSecs", strconv.Itoa(int(retention/time.Second)))
			}
			idx, err := svc.CreateIndex(cmd.Context(), args[0], settings)
			if err != nil {
				return err
			}
			printf(cmd, "created index %s\n", idx.Name())
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSizeMB, "max-size-mb", 0, "maxTotalDataSizeMB of the index")
	cmd.Flags().DurationVar(&retention, "retention", 0, "frozenTimePeriodInSecs of the index as a duration")
	return cmd
}

func newIndexRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.RemoveIndex(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd, "removed index %s\n", args[0])
			return nil
		},
	}
}

// indexAction runs fn against the named index.
func indexAction(opts *rootOptions, fn func(cmd *cobra.Command, idx *splunk.Index, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := opts.connect(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := svc.Index(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return fn(cmd, idx, args)
	}
}

func newIndexRollCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roll <name>",
		Short: "Roll the hot buckets of an index",
		Args:  cobra.ExactArgs(1),
		RunE: indexAction(opts, func(cmd *cobra.Command, idx *splunk.Index, _ []string) error {
			if err := idx.RollHotBuckets(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "rolled hot buckets of %s\n", idx.Name())
			return nil
		}),
	}
}

func newIndexCleanCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "clean <name>",
		Short: "Delete every event of an index",
		Long: `Clean temporarily shrinks the size and retention limits of the index to 1,
rolls its hot buckets and waits until the event count is zero. The original
limits are restored afterwards, also when interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: indexAction(opts, func(cmd *cobra.Command, idx *splunk.Index, _ []string) error {
			idx.SetPollInterval(interval)
			if err := idx.Clean(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "cleaned index %s\n", idx.Name())
			return nil
		}),
	}
	cmd.Flags().DurationVar(&interval, "poll-interval", time.Second, "How often to check the event count")
	return cmd
}

func newIndexUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <name> <server-path>",
		Short: "Index a file that exists on the Splunk server once",
		Args:  cobra.ExactArgs(2),
		RunE: indexAction(opts, func(cmd *cobra.Command, idx *splunk.Index, args []string) error {
			if err := idx.Upload(cmd.Context(), args[1]); err != nil {
				return err
			}
			printf(cmd, "uploaded %s to %s\n", args[1], idx.Name())
			return nil
		}),
	}
}

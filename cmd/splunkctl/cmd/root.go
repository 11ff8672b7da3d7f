// Package cmd provides the commands of splunkctl.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	splunk "github.com/fuyufjh/splunk-sdk-go"
)

// rootOptions holds the connection flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
	flags      splunk.Config

	logger *slog.Logger
}

// Execute runs splunkctl. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command for splunkctl.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "splunkctl",
		Short: "Send events to and manage indexes of a Splunk server",
		Long: `splunkctl talks to the splunkd management port.

Connection settings come from --config (YAML) and are overridden by flags.
Authenticate with --token, or with --username and --password.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: parseLevel(opts.logLevel),
			}))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.flags.Scheme, "scheme", "", "http or https (default https)")
	pf.StringVar(&opts.flags.Host, "host", "", "splunkd host (default localhost)")
	pf.IntVar(&opts.flags.Port, "port", 0, "splunkd management port (default 8089)")
	pf.StringVar(&opts.flags.Token, "token", "", "Authorization header value, e.g. \"Bearer <token>\"")
	pf.StringVar(&opts.flags.Username, "username", "", "Login user name")
	pf.StringVar(&opts.flags.Password, "password", "", "Login password")
	pf.StringVar(&opts.flags.Owner, "owner", "", "Namespace owner")
	pf.StringVar(&opts.flags.App, "app", "", "Namespace app")
	pf.BoolVar(&opts.flags.InsecureSkipVerify, "insecure", false, "Skip TLS certificate verification")

	cmd.AddCommand(newSubmitCmd(opts))
	cmd.AddCommand(newStreamCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))

	return cmd
}

// connect builds a Service from the config file and flags and logs in when
// a user name is given without a token.
func (o *rootOptions) connect(ctx context.Context) (*splunk.Service, error) {
	cfg := splunk.NewDefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = splunk.LoadConfig(o.configFile); err != nil {
			return nil, err
		}
	}
	cfg.Apply(&o.flags)

	svc, err := splunk.NewService(cfg)
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		svc.SetLogger(o.logger.With("component", "splunk"))
		o.logger.Debug("connecting", "config", svc.Config().String())
	}
	if cfg.Token == "" && cfg.Username != "" {
		if err := svc.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// eventFlags are the receiver metadata flags of submit and stream.
type eventFlags struct {
	index      string
	host       string
	source     string
	sourcetype string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.index, "index", "", "Target index (default index when empty)")
	cmd.Flags().StringVar(&f.host, "event-host", "", "host field of the events")
	cmd.Flags().StringVar(&f.source, "source", "", "source field of the events")
	cmd.Flags().StringVar(&f.sourcetype, "sourcetype", "", "sourcetype field of the events")
}

func (f *eventFlags) args() splunk.Args {
	var args splunk.Args
	if f.host != "" {
		args.Add("host", f.host)
	}
	if f.source != "" {
		args.Add("source", f.source)
	}
	if f.sourcetype != "" {
		args.Add("sourcetype", f.sourcetype)
	}
	return args
}

func printf(cmd *cobra.Command, format string, a ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}

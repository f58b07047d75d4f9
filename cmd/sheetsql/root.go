package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sheetsql/sheets-client-go/sheets"
)

type rootFlags struct {
	config             string
	execute            string
	verbose            bool
	headers            int
	raise              bool
	serviceAccountFile string
	subject            string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "sheetsql",
		Short:         "Query Google Sheets with SQL",
		Long:          "An interactive console that runs SQL queries against Google Sheets. Name the sheet URL in the FROM clause.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}

			opts, err := resolveOptions(cmd, flags)
			if err != nil {
				return err
			}
			conn, err := sheets.NewWithConfig(opts.clientConfig())
			if err != nil {
				return err
			}

			c := &console{conn: conn, out: cmd.OutOrStdout(), raise: opts.Raise}
			if flags.execute != "" {
				return c.execute(cmd.Context(), flags.execute)
			}

			reader, err := openLineReader(opts.History)
			if err != nil {
				return fmt.Errorf("failed to open console: %w", err)
			}
			defer reader.Close()
			return c.run(cmd.Context(), reader)
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "YAML config file")
	cmd.Flags().StringVarP(&flags.execute, "execute", "e", "", "run one query and exit")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	cmd.Flags().IntVar(&flags.headers, "headers", 0, "number of header rows in each sheet")
	cmd.Flags().BoolVar(&flags.raise, "raise", false, "stop on the first query error")
	cmd.Flags().StringVar(&flags.serviceAccountFile, "service-account-file", "", "service account JSON key for private sheets")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "user to impersonate with the service account")

	return cmd
}

// resolveOptions loads the config file and applies the flags the user set on
// top of it.
func resolveOptions(cmd *cobra.Command, flags *rootFlags) (*options, error) {
	opts, err := loadOptions(flags.config)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("headers") {
		if flags.headers < 0 {
			return nil, fmt.Errorf("invalid --headers %d: must not be negative", flags.headers)
		}
		opts.Headers = flags.headers
	}
	if cmd.Flags().Changed("raise") {
		opts.Raise = flags.raise
	}
	if cmd.Flags().Changed("service-account-file") {
		opts.ServiceAccountFile = flags.serviceAccountFile
	}
	if cmd.Flags().Changed("subject") {
		opts.Subject = flags.subject
	}
	return opts, nil
}

// Command catalogctl inspects storefront catalog views from the command line.
//
//	catalogctl canon 'sort=price&q=soda&page=1'
//	catalogctl fetch --base http://localhost:8080 --collection recipes --page 2
//	catalogctl view --base http://localhost:8080 --collection products --query 'cat=citrus&sort=price'
package main

import (
	"fmt"
	"os"

	"storefront/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect storefront catalog views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			l, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "enable logging to stderr at this level (debug, info, warn, error)")

	root.AddCommand(newCanonCmd(), newViewCmd(), newFetchCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Operator tool for the digital store order core",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(orderActionCmd("expire", "Force a PENDING order to EXPIRED and release its stock", expireAction))
	rootCmd.AddCommand(orderActionCmd("release", "Return stock still held by an EXPIRED or CANCELLED order", releaseAction))
	rootCmd.AddCommand(orderActionCmd("redispatch", "Send the delivery message of a PAID order again", redispatchAction))
	rootCmd.AddCommand(orderActionCmd("refund", "Move a PAID order to REFUNDED", refundAction))
	rootCmd.AddCommand(retryJobsCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(banCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	return rootCmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/Send-Payment-Service/pkg/config"
)

var Version = "dev"

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "sendpay",
		Short:         "Send payments through the gateway and follow the transaction history",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

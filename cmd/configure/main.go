package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcat4/token-gate/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "token-gate-configure",
		Short: "Configuration tool for the token gate API",
		Long:  "CLI tool for registering clients and verifying ID tokens",
	}

	rootCmd.AddCommand(commands.NewClientCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewVerifyCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

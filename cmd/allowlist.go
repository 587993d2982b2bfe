/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/server"
	"github.com/macrotrack/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// allowlistCmd manages provisioned credentials. The allow-list is not
// reachable over HTTP.
var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the credential allow-list",
}

var allowlistAddCmd = &cobra.Command{
	Use:   "add <secret>",
	Short: "Provision a credential and print its identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		repos, err := server.OpenRepositories(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer repos.Close()

		userID, err := services.Provision(cmd.Context(), repos.AllowList, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), userID)
		return nil
	},
}

var allowlistCheckCmd = &cobra.Command{
	Use:   "check <secret>",
	Short: "Report whether a credential is provisioned",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		repos, err := server.OpenRepositories(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer repos.Close()

		userID := services.Digest(args[0])
		ok, err := repos.AllowList.Exists(cmd.Context(), userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("identity %s is not provisioned", userID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s provisioned\n", userID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(allowlistCmd)
	allowlistCmd.AddCommand(allowlistAddCmd)
	allowlistCmd.AddCommand(allowlistCheckCmd)
}

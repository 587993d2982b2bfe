/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/gateway"
	"github.com/macrotrack/apiserver/internal/logging"
	"github.com/macrotrack/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// lambdaCmd serves API Gateway proxy events instead of listening on a port.
var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serves API Gateway proxy events from the Lambda runtime",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		log := logging.New(cfg.LogLevel)

		// Clients are built once per cold start and reused across invocations.
		srv, err := server.New(context.Background(), cfg, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialise handler")
		}

		lambda.Start(gateway.New(srv.Handler()).Invoke)
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

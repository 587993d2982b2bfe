/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/logging"
	"github.com/macrotrack/apiserver/internal/mq"
	"github.com/macrotrack/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the event channel and log every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.LogLevel)

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}
		defer broker.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.WithField("channel", broker.Channel()).Info("tailing events")
		err = broker.SubscribeEvents(ctx,
			func(_ context.Context, id string, event types.Event) error {
				log.WithFields(logrus.Fields{
					"message_id": id,
					"type":       event.Type,
					"user_id":    event.UserID,
					"date":       event.Date,
					"meal_id":    event.MealID,
					"calories":   event.Macros.Calories,
				}).Info("event")
				return nil
			},
			func(msg mq.Message, err error) {
				log.WithError(err).WithField("message_id", msg.ID).Warn("dropping undecodable event")
			},
		)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}

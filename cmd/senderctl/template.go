package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sender/pkg/config"
	"github.com/ajitpratap0/sender/pkg/sender"
)

func newInitCommand() *cobra.Command {
	var output, brokers string
	var transactionalID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter sender configuration",
		Long: `Write a starter YAML configuration with the default sender settings.
Without --output the configuration is printed.

Example:
  senderctl init --bootstrap-servers broker:9092 --output sender.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := starterConfig(brokers, transactionalID)
			if output == "" {
				data, err := config.Marshal(f)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := config.Save(output, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (prints to stdout when empty)")
	cmd.Flags().StringVar(&brokers, "bootstrap-servers", "localhost:9092", "Comma separated broker list")
	cmd.Flags().StringVar(&transactionalID, "transactional-id", "", "Transactional id for exactly-once producers")
	return cmd
}

// starterConfig leaves client.id unset so every loader synthesizes one.
func starterConfig(brokers, transactionalID string) *config.File {
	maxInFlight := sender.DefaultMaxInFlight
	stopOnError := true
	closeTimeout := 30 * time.Second

	props := map[string]any{
		sender.BootstrapServersConfig:     brokers,
		sender.AcksConfig:                 "all",
		sender.EnableIdempotenceConfig:    true,
		sender.KeySerializerClassConfig:   "string",
		sender.ValueSerializerClassConfig: "json",
	}
	if transactionalID != "" {
		props[sender.TransactionalIDConfig] = transactionalID
	}

	return &config.File{
		Format:   "yaml",
		Producer: props,
		Sender: config.SenderSettings{
			MaxInFlight:  &maxInFlight,
			StopOnError:  &stopOnError,
			CloseTimeout: &closeTimeout,
		},
	}
}

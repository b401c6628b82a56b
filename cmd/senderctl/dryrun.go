package main

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/compression"
	"github.com/ajitpratap0/sender/pkg/config"
	jsonpool "github.com/ajitpratap0/sender/pkg/json"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/observability"
	"github.com/ajitpratap0/sender/pkg/producer"
	"github.com/ajitpratap0/sender/pkg/sender"
	"github.com/ajitpratap0/sender/pkg/sender/observation"
)

type dryRunFlags struct {
	configFile string
	topic      string
	key        string
	value      string
	compress   string
	exporter   string
}

// preparedMessage is the printable form of a message built by dry-run.
type preparedMessage struct {
	Topic       string            `json:"topic"`
	ClientID    string            `json:"client_id"`
	Brokers     []string          `json:"brokers"`
	Key         string            `json:"key"`
	Value       string            `json:"value,omitempty"`
	ValueBytes  int               `json:"value_bytes"`
	Compression string            `json:"compression,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

func newDryRunCommand() *cobra.Command {
	var flags dryRunFlags

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Build one record exactly as a sender would, without contacting Kafka",
		Long: `Resolve a configuration file into producer settings, serialize one record and
print the resulting message. The send is observed like a real one: the span is
exported to stderr and its trace context is injected into the message headers.

Example:
  senderctl dry-run --config sender.yaml --topic orders --key o-1 --value '{"id":"o-1"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDryRun(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to the sender configuration file (required)")
	cmd.Flags().StringVarP(&flags.topic, "topic", "t", "", "Destination topic (required)")
	cmd.Flags().StringVar(&flags.key, "key", "", "Record key")
	cmd.Flags().StringVar(&flags.value, "value", "", "Record value")
	cmd.Flags().StringVar(&flags.compress, "compress", "", "Payload compression (gzip, snappy, lz4, zstd, s2, deflate)")
	cmd.Flags().StringVar(&flags.exporter, "trace-exporter", "stdout", "Span exporter (stdout, none)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runDryRun(ctx context.Context, out, spans io.Writer, flags dryRunFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	opts, err := config.BuildOptions[string, string](f)
	if err != nil {
		return err
	}

	algorithm, err := compression.ParseAlgorithm(flags.compress)
	if err != nil {
		return err
	}
	var valueSer sender.Serializer[string] = sender.StringSerializer{}
	if algorithm != compression.None {
		if valueSer, err = sender.NewCompressingSerializer[string](valueSer, &compression.Config{
			Algorithm: algorithm,
			Level:     compression.Default,
		}); err != nil {
			return err
		}
	}

	telemetryConfig := observability.DefaultConfig()
	telemetryConfig.ExporterType = flags.exporter
	telemetryConfig.Output = spans
	tel, err := observability.Setup(ctx, telemetryConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if opts, err = opts.WithKeySerializer(sender.StringSerializer{}); err != nil {
		return err
	}
	if opts, err = opts.WithValueSerializer(valueSer); err != nil {
		return err
	}
	if opts, err = opts.WithObservation(tel.Registry, nil); err != nil {
		return err
	}

	settings, err := producer.NewSettings(opts)
	if err != nil {
		return err
	}

	ctx, obs := observation.Start(ctx, settings.Registry, settings.Convention, observation.SendContext{
		Topic:     flags.topic,
		ClientID:  settings.Sarama.ClientID,
		Partition: -1,
	})
	msg, err := settings.Message(ctx, producer.Record[string, string]{
		Topic: flags.topic,
		Key:   flags.key,
		Value: flags.value,
	})
	if err != nil {
		obs.Error(err)
		obs.Stop()
		return err
	}
	obs.Stop()

	pm := preparedMessage{
		Topic:    msg.Topic,
		ClientID: settings.Sarama.ClientID,
		Brokers:  settings.Brokers,
		Key:      flags.key,
		Headers:  make(map[string]string, len(msg.Headers)),
	}
	if msg.Value != nil {
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		pm.ValueBytes = len(value)
		if algorithm == compression.None && utf8.Valid(value) {
			pm.Value = string(value)
		}
	}
	if algorithm != compression.None {
		pm.Compression = string(algorithm)
	}
	for _, h := range msg.Headers {
		pm.Headers[string(h.Key)] = string(h.Value)
	}

	logger.Info("dry run complete",
		zap.String("topic", pm.Topic),
		zap.Int("value_bytes", pm.ValueBytes))
	return jsonpool.MarshalToWriter(out, pm, "  ")
}

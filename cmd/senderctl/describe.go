package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/sender/pkg/config"
	jsonpool "github.com/ajitpratap0/sender/pkg/json"
	"github.com/ajitpratap0/sender/pkg/producer"
	"github.com/ajitpratap0/sender/pkg/sender"
)

// description is the resolved view of a configuration file.
type description struct {
	ClientID         string               `json:"client_id" yaml:"client_id"`
	TransactionalID  string               `json:"transactional_id,omitempty" yaml:"transactional_id,omitempty"`
	BootstrapServers []string             `json:"bootstrap_servers,omitempty" yaml:"bootstrap_servers,omitempty"`
	Properties       map[string]any       `json:"properties" yaml:"properties"`
	Sender           senderDescription    `json:"sender" yaml:"sender"`
	Producer         *producerDescription `json:"producer,omitempty" yaml:"producer,omitempty"`
	Hash             string               `json:"hash" yaml:"hash"`
}

type senderDescription struct {
	MaxInFlight  int    `json:"max_in_flight" yaml:"max_in_flight"`
	StopOnError  bool   `json:"stop_on_error" yaml:"stop_on_error"`
	CloseTimeout string `json:"close_timeout" yaml:"close_timeout"`
	Scheduler    string `json:"scheduler" yaml:"scheduler"`
}

type producerDescription struct {
	Acks            string `json:"acks" yaml:"acks"`
	Compression     string `json:"compression" yaml:"compression"`
	Idempotent      bool   `json:"idempotent" yaml:"idempotent"`
	MaxOpenRequests int    `json:"max_open_requests" yaml:"max_open_requests"`
	TLS             bool   `json:"tls" yaml:"tls"`
	SASLMechanism   string `json:"sasl_mechanism,omitempty" yaml:"sasl_mechanism,omitempty"`
	KafkaVersion    string `json:"kafka_version" yaml:"kafka_version"`
}

func newDescribeCommand() *cobra.Command {
	var configFile, output string
	var validate bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the sender options a configuration file resolves to",
		Long: `Load a configuration file, build sender options from it and print the result.
Secret properties are masked. With --validate (the default) the options are also
translated into a producer configuration and rejected when that fails.

Example:
  senderctl describe --config sender.yaml --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(configFile)
			if err != nil {
				return err
			}
			d, err := describe(f, validate)
			if err != nil {
				return err
			}
			return writeDescription(cmd.OutOrStdout(), d, output)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the sender configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&validate, "validate", true, "Translate the options into a producer configuration")
	return cmd
}

func describe(f *config.File, validate bool) (*description, error) {
	opts, err := config.BuildOptions[[]byte, []byte](f)
	if err != nil {
		return nil, err
	}

	props := opts.ProducerProperties()
	for k := range props {
		if sender.IsSecretProperty(k) {
			props[k] = "[hidden]"
		}
	}

	d := &description{
		ClientID:        opts.ClientID(),
		TransactionalID: opts.TransactionalID(),
		Properties:      props,
		Sender: senderDescription{
			MaxInFlight:  opts.MaxInFlight(),
			StopOnError:  opts.StopOnError(),
			CloseTimeout: closeTimeoutString(opts),
			Scheduler:    fmt.Sprint(opts.Scheduler()),
		},
		Hash: strconv.FormatUint(opts.Hash(), 16),
	}

	if !validate {
		return d, nil
	}

	raw := opts.ProducerProperties()
	if d.BootstrapServers, err = producer.Brokers(raw); err != nil {
		return nil, err
	}
	sc, err := producer.NewSaramaConfig(raw, opts.MaxInFlight())
	if err != nil {
		return nil, err
	}
	d.Producer = &producerDescription{
		Acks:            acksString(sc.Producer.RequiredAcks),
		Compression:     sc.Producer.Compression.String(),
		Idempotent:      sc.Producer.Idempotent,
		MaxOpenRequests: sc.Net.MaxOpenRequests,
		TLS:             sc.Net.TLS.Enable,
		KafkaVersion:    sc.Version.String(),
	}
	if sc.Net.SASL.Enable {
		d.Producer.SASLMechanism = string(sc.Net.SASL.Mechanism)
	}
	return d, nil
}

func writeDescription(w io.Writer, d *description, format string) error {
	switch format {
	case "json":
		return jsonpool.MarshalToWriter(w, d, "  ")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		fmt.Fprintf(w, "client.id:        %s\n", d.ClientID)
		if d.TransactionalID != "" {
			fmt.Fprintf(w, "transactional.id: %s\n", d.TransactionalID)
		}
		if len(d.BootstrapServers) > 0 {
			fmt.Fprintf(w, "brokers:          %v\n", d.BootstrapServers)
		}
		fmt.Fprintf(w, "max in flight:    %d\n", d.Sender.MaxInFlight)
		fmt.Fprintf(w, "stop on error:    %t\n", d.Sender.StopOnError)
		fmt.Fprintf(w, "close timeout:    %s\n", d.Sender.CloseTimeout)
		fmt.Fprintf(w, "scheduler:        %s\n", d.Sender.Scheduler)
		if p := d.Producer; p != nil {
			fmt.Fprintf(w, "acks:             %s\n", p.Acks)
			fmt.Fprintf(w, "compression:      %s\n", p.Compression)
			fmt.Fprintf(w, "idempotent:       %t\n", p.Idempotent)
			fmt.Fprintf(w, "kafka version:    %s\n", p.KafkaVersion)
		}
		fmt.Fprintf(w, "hash:             %s\n", d.Hash)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func closeTimeoutString(opts *sender.Options[[]byte, []byte]) string {
	if opts.CloseTimeout() == sender.DefaultCloseTimeout {
		return "unbounded"
	}
	return opts.CloseTimeout().String()
}

func acksString(acks sarama.RequiredAcks) string {
	switch acks {
	case sarama.WaitForAll:
		return "all"
	case sarama.WaitForLocal:
		return "1"
	case sarama.NoResponse:
		return "0"
	default:
		return strconv.Itoa(int(acks))
	}
}

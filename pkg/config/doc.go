// Package config loads sender options from a configuration file.
//
// A file has two sections. The producer section holds the raw Kafka producer
// properties that become the options overlay. The sender section holds the
// typed sender settings:
//
//	producer:
//	  bootstrap.servers: ${KAFKA_BROKERS}
//	  acks: all
//	  transactional.id: orders-tx
//	sender:
//	  max_in_flight: 512
//	  stop_on_error: false
//	  close_timeout: 30s
//
// YAML, JSON and TOML files are read through viper. A Java style .properties
// file is a flat producer overlay without a sender section. Occurrences of
// ${VAR_NAME} are replaced with the value of the environment variable before
// parsing, and SENDER_MAX_IN_FLIGHT, SENDER_STOP_ON_ERROR and
// SENDER_CLOSE_TIMEOUT override the sender section.
//
// # Usage
//
//	f, err := config.Load("sender.yaml")
//	if err != nil {
//		return err
//	}
//	opts, err := config.BuildOptions[string, Order](f)
//
// Property keys are case-insensitive and are stored in lower case.
package config

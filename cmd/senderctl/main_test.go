package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/sender/pkg/compression"
	jsonpool "github.com/ajitpratap0/sender/pkg/json"
)

const sampleConfig = `
producer:
  bootstrap.servers: broker-1:9092,broker-2:9092
  client.id: orders
  acks: all
  compression.type: lz4
  security.protocol: SASL_SSL
  sasl.mechanism: SCRAM-SHA-512
  sasl.username: svc
  sasl.password: hunter2
sender:
  max_in_flight: 64
  stop_on_error: false
  close_timeout: 15s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sender.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(append(args, "--log-level", "error"))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "senderctl v"+version)
}

func TestDescribeJSON(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	out, _, err := run(t, "describe", "--config", path, "--output", "json")
	require.NoError(t, err)

	var d description
	require.NoError(t, jsonpool.Unmarshal([]byte(out), &d))
	assert.Equal(t, "orders", d.ClientID)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, d.BootstrapServers)
	assert.Equal(t, "[hidden]", d.Properties["sasl.password"])
	assert.NotContains(t, out, "hunter2")
	assert.Equal(t, 64, d.Sender.MaxInFlight)
	assert.False(t, d.Sender.StopOnError)
	assert.Equal(t, "15s", d.Sender.CloseTimeout)
	assert.Equal(t, "immediate", d.Sender.Scheduler)
	require.NotNil(t, d.Producer)
	assert.Equal(t, "all", d.Producer.Acks)
	assert.Equal(t, "lz4", d.Producer.Compression)
	assert.True(t, d.Producer.TLS)
	assert.Equal(t, "SCRAM-SHA-512", d.Producer.SASLMechanism)
	assert.NotEmpty(t, d.Hash)
}

func TestDescribeYAMLAndText(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	out, _, err := run(t, "describe", "-c", path, "-o", "yaml")
	require.NoError(t, err)
	var d description
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, "orders", d.ClientID)

	out, _, err = run(t, "describe", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "client.id:        orders")
	assert.Contains(t, out, "close timeout:    15s")
}

func TestDescribeValidation(t *testing.T) {
	path := writeConfig(t, "producer:\n  acks: all\n")

	_, _, err := run(t, "describe", "--config", path)
	require.Error(t, err)

	out, _, err := run(t, "describe", "--config", path, "--validate=false", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"client_id": "producer-`)
	assert.NotContains(t, out, `"producer":`)

	_, _, err = run(t, "describe", "--config", path, "--validate=false", "-o", "xml")
	assert.Error(t, err)
}

func TestInitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "starter.yaml")
	out, _, err := run(t, "init", "--output", path, "--bootstrap-servers", "kafka:9092", "--transactional-id", "tx-1")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	out, _, err = run(t, "describe", "--config", path, "-o", "json")
	require.NoError(t, err)
	var d description
	require.NoError(t, jsonpool.Unmarshal([]byte(out), &d))
	assert.Equal(t, "producer-tx-1", d.ClientID)
	assert.Equal(t, "tx-1", d.TransactionalID)
	assert.True(t, d.Producer.Idempotent)
	assert.Equal(t, "30s", d.Sender.CloseTimeout)

	printed, _, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, printed, "bootstrap.servers: localhost:9092")
}

func TestDryRun(t *testing.T) {
	path := writeConfig(t, "producer:\n  bootstrap.servers: localhost:9092\n  client.id: dry\n")

	out, spans, err := run(t, "dry-run", "--config", path, "--topic", "orders", "--key", "o-1", "--value", `{"id":"o-1"}`)
	require.NoError(t, err)

	var pm preparedMessage
	require.NoError(t, jsonpool.Unmarshal([]byte(out), &pm))
	assert.Equal(t, "orders", pm.Topic)
	assert.Equal(t, "dry", pm.ClientID)
	assert.Equal(t, `{"id":"o-1"}`, pm.Value)
	assert.Equal(t, len(`{"id":"o-1"}`), pm.ValueBytes)
	assert.NotEmpty(t, pm.Headers["traceparent"])
	assert.Contains(t, spans, "orders send")
}

func TestDryRunCompressed(t *testing.T) {
	path := writeConfig(t, "producer:\n  bootstrap.servers: localhost:9092\n")

	out, _, err := run(t, "dry-run", "-c", path, "-t", "orders", "--value", "payload", "--compress", "gzip", "--trace-exporter", "none")
	require.NoError(t, err)

	var pm preparedMessage
	require.NoError(t, jsonpool.Unmarshal([]byte(out), &pm))
	assert.Equal(t, string(compression.Gzip), pm.Compression)
	assert.Empty(t, pm.Value)
	assert.Positive(t, pm.ValueBytes)

	_, _, err = run(t, "dry-run", "-c", path, "-t", "orders", "--compress", "brotli")
	assert.Error(t, err)
}

package producer

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
	"github.com/ajitpratap0/sender/pkg/sender"
)

// handledKeys lists the overlay keys NewSaramaConfig interprets. Any other
// key is reported at debug level and otherwise ignored.
var handledKeys = map[string]struct{}{
	sender.BootstrapServersConfig:           {},
	sender.ClientIDConfig:                   {},
	sender.TransactionalIDConfig:            {},
	sender.TransactionTimeoutConfig:         {},
	sender.KeySerializerClassConfig:         {},
	sender.ValueSerializerClassConfig:       {},
	sender.AcksConfig:                       {},
	sender.RetriesConfig:                    {},
	sender.RetryBackoffMsConfig:             {},
	sender.LingerMsConfig:                   {},
	sender.BatchSizeConfig:                  {},
	sender.MaxRequestSizeConfig:             {},
	sender.CompressionTypeConfig:            {},
	sender.EnableIdempotenceConfig:          {},
	sender.RequestTimeoutMsConfig:           {},
	sender.MaxInFlightRequestsPerConnection: {},
	sender.SecurityProtocolConfig:           {},
	sender.SASLMechanismConfig:              {},
	sender.SASLUsernameConfig:               {},
	sender.SASLPasswordConfig:               {},
	sender.KafkaVersionConfig:               {},
	sender.SSLEndpointIdentificationConfig:  {},
}

// NewSaramaConfig translates a producer property overlay into a sarama
// configuration. maxInFlight sizes the producer channels. The result has
// passed sarama's own validation.
func NewSaramaConfig(props map[string]any, maxInFlight int) (*sarama.Config, error) {
	if maxInFlight <= 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "max in flight must be positive, got %d", maxInFlight)
	}

	p := properties(props)
	config := sarama.NewConfig()
	config.ChannelBufferSize = maxInFlight
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	if id := p.stringValue(sender.ClientIDConfig); id != "" {
		config.ClientID = id
	}

	if v := p.stringValue(sender.KafkaVersionConfig); v != "" {
		version, err := sarama.ParseKafkaVersion(v)
		if err != nil {
			return nil, p.invalid(sender.KafkaVersionConfig, err)
		}
		config.Version = version
	}

	// Producer settings
	switch acks := strings.ToLower(p.stringValue(sender.AcksConfig)); acks {
	case "", "all", "-1":
		config.Producer.RequiredAcks = sarama.WaitForAll
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, p.invalidValue(sender.AcksConfig)
	}

	if err := p.applyInt(sender.RetriesConfig, func(n int) { config.Producer.Retry.Max = n }); err != nil {
		return nil, err
	}
	if err := p.applyMillis(sender.RetryBackoffMsConfig, func(d time.Duration) { config.Producer.Retry.Backoff = d }); err != nil {
		return nil, err
	}
	if err := p.applyMillis(sender.LingerMsConfig, func(d time.Duration) { config.Producer.Flush.Frequency = d }); err != nil {
		return nil, err
	}
	if err := p.applyInt(sender.BatchSizeConfig, func(n int) { config.Producer.Flush.Bytes = n }); err != nil {
		return nil, err
	}
	if err := p.applyInt(sender.MaxRequestSizeConfig, func(n int) { config.Producer.MaxMessageBytes = n }); err != nil {
		return nil, err
	}
	if err := p.applyMillis(sender.RequestTimeoutMsConfig, func(d time.Duration) { config.Producer.Timeout = d }); err != nil {
		return nil, err
	}
	if err := p.applyInt(sender.MaxInFlightRequestsPerConnection, func(n int) { config.Net.MaxOpenRequests = n }); err != nil {
		return nil, err
	}

	// Compression
	switch compression := strings.ToLower(p.stringValue(sender.CompressionTypeConfig)); compression {
	case "", "none":
		config.Producer.Compression = sarama.CompressionNone
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		config.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		config.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		config.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, p.invalidValue(sender.CompressionTypeConfig)
	}

	// Idempotence and transactions
	idempotent, err := p.boolValue(sender.EnableIdempotenceConfig)
	if err != nil {
		return nil, err
	}
	if txID := p.stringValue(sender.TransactionalIDConfig); txID != "" {
		config.Producer.Transaction.ID = txID
		idempotent = true
		if err := p.applyMillis(sender.TransactionTimeoutConfig, func(d time.Duration) { config.Producer.Transaction.Timeout = d }); err != nil {
			return nil, err
		}
	}
	if idempotent {
		if config.Net.MaxOpenRequests > 1 {
			logger.Debug("idempotent producer limits open requests to one",
				zap.Int("configured", config.Net.MaxOpenRequests))
		}
		config.Producer.Idempotent = true
		config.Net.MaxOpenRequests = 1
	}

	if err := applySecurity(config, p); err != nil {
		return nil, err
	}

	for key := range props {
		if _, ok := handledKeys[key]; !ok {
			logger.Debug("producer property not used by sarama", zap.String("key", key))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid producer configuration")
	}
	return config, nil
}

// Brokers splits the bootstrap.servers property into broker addresses.
func Brokers(props map[string]any) ([]string, error) {
	raw := properties(props).stringValue(sender.BootstrapServersConfig)
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "%s must name at least one broker", sender.BootstrapServersConfig)
	}
	return brokers, nil
}

// Security settings
func applySecurity(config *sarama.Config, p properties) error {
	protocol := strings.ToUpper(p.stringValue(sender.SecurityProtocolConfig))
	switch protocol {
	case "", "PLAINTEXT":
	case "SSL", "SASL_SSL":
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if algo, set := p[sender.SSLEndpointIdentificationConfig]; set && cast.ToString(algo) == "" {
			config.Net.TLS.Config.InsecureSkipVerify = true //nolint:gosec // explicitly disabled by configuration
		}
	case "SASL_PLAINTEXT":
	default:
		return p.invalidValue(sender.SecurityProtocolConfig)
	}

	mechanism := strings.ToUpper(p.stringValue(sender.SASLMechanismConfig))
	if !strings.HasPrefix(protocol, "SASL_") {
		if mechanism != "" {
			logger.Warn("sasl.mechanism ignored without a SASL security protocol",
				zap.String("protocol", protocol))
		}
		return nil
	}

	config.Net.SASL.Enable = true
	config.Net.SASL.User = p.stringValue(sender.SASLUsernameConfig)
	config.Net.SASL.Password = p.stringValue(sender.SASLPasswordConfig)

	switch mechanism {
	case "", "PLAIN":
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	case "SCRAM-SHA-256":
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{HashGeneratorFcn: sha256Generator}
		}
	case "SCRAM-SHA-512":
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{HashGeneratorFcn: sha512Generator}
		}
	default:
		return p.invalidValue(sender.SASLMechanismConfig)
	}
	return nil
}

// properties reads loosely typed overlay values.
type properties map[string]any

func (p properties) stringValue(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func (p properties) boolValue(key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, p.invalid(key, err)
	}
	return b, nil
}

func (p properties) applyInt(key string, set func(int)) error {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return p.invalid(key, err)
	}
	set(n)
	return nil
}

func (p properties) applyMillis(key string, set func(time.Duration)) error {
	return p.applyInt(key, func(ms int) { set(time.Duration(ms) * time.Millisecond) })
}

func (p properties) invalid(key string, cause error) error {
	return errors.Wrap(cause, errors.ErrorTypeConfig, "invalid producer property").
		WithDetail("key", key).
		WithDetail("value", p.display(key))
}

func (p properties) invalidValue(key string) error {
	return errors.Newf(errors.ErrorTypeConfig, "unsupported value for %s", key).
		WithDetail("value", p.display(key))
}

func (p properties) display(key string) any {
	if sender.IsSecretProperty(key) {
		return "[hidden]"
	}
	return p[key]
}

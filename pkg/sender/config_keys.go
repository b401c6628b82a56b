package sender

// Producer property names understood by the producer construction in
// pkg/producer. The overlay is otherwise opaque to this package; only the
// client and transactional ids are interpreted here.
const (
	BootstrapServersConfig           = "bootstrap.servers"
	ClientIDConfig                   = "client.id"
	TransactionalIDConfig            = "transactional.id"
	TransactionTimeoutConfig         = "transaction.timeout.ms"
	KeySerializerClassConfig         = "key.serializer"
	ValueSerializerClassConfig       = "value.serializer"
	AcksConfig                       = "acks"
	RetriesConfig                    = "retries"
	RetryBackoffMsConfig             = "retry.backoff.ms"
	LingerMsConfig                   = "linger.ms"
	BatchSizeConfig                  = "batch.size"
	MaxRequestSizeConfig             = "max.request.size"
	CompressionTypeConfig            = "compression.type"
	EnableIdempotenceConfig          = "enable.idempotence"
	RequestTimeoutMsConfig           = "request.timeout.ms"
	MaxInFlightRequestsPerConnection = "max.in.flight.requests.per.connection"
	SecurityProtocolConfig           = "security.protocol"
	SASLMechanismConfig              = "sasl.mechanism"
	SASLUsernameConfig               = "sasl.username"
	SASLPasswordConfig               = "sasl.password"
	KafkaVersionConfig               = "kafka.version"
	SSLEndpointIdentificationConfig  = "ssl.endpoint.identification.algorithm"
)

// clientIDPrefix prefixes every synthesized client id.
const clientIDPrefix = "producer-"

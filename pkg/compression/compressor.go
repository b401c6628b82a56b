// Package compression compresses record payloads before they are handed to
// the producer. It complements the batch compression configured through
// compression.type: payload compression applies per record, survives
// re-publishing and lets consumers outside Kafka read the stored bytes.
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := comp.Compress(payload)
//	original, err := comp.Decompress(compressed)
//
// # Algorithm Selection
//
// Speed (fastest to slowest): LZ4 > Snappy/S2 > Zstd > Gzip/Deflate
// Compression ratio (best to worst): Zstd > Gzip/Deflate > Snappy/S2 > LZ4
package compression

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/sender/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None leaves payloads untouched
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy block compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// ParseAlgorithm returns the algorithm named s, ignoring case. An empty name
// selects None.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case "":
		return None, nil
	case None, Gzip, Snappy, LZ4, Zstd, S2, Deflate:
		return a, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", s)
	}
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// DefaultMaxDecompressedSize bounds the output of Decompress.
const DefaultMaxDecompressedSize = 64 << 20

// Compressor compresses and decompresses whole payloads.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress returns the compressed form of data. data is not modified.
	Compress(data []byte) ([]byte, error)
	// Decompress returns the original bytes of data. data is not modified.
	Decompress(data []byte) ([]byte, error)
	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm
	Level     Level
	// MaxDecompressedSize caps decompressed output. Zero selects
	// DefaultMaxDecompressedSize.
	MaxDecompressedSize int64
}

// DefaultConfig returns a snappy configuration at the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Snappy,
		Level:     Default,
	}
}

// NewCompressor creates a compressor for config. A nil config selects
// DefaultConfig.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	limit := config.MaxDecompressedSize
	if limit <= 0 {
		limit = DefaultMaxDecompressedSize
	}

	switch config.Algorithm {
	case None, "":
		return noneCompressor{}, nil
	case Gzip:
		return &streamCompressor{
			algorithm: Gzip,
			limit:     limit,
			writer: func(w io.Writer) (io.WriteCloser, error) {
				return gzip.NewWriterLevel(w, mapGzipLevel(config.Level))
			},
			reader: func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
		}, nil
	case Deflate:
		return &streamCompressor{
			algorithm: Deflate,
			limit:     limit,
			writer: func(w io.Writer) (io.WriteCloser, error) {
				return flate.NewWriter(w, mapDeflateLevel(config.Level))
			},
			reader: func(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil },
		}, nil
	case LZ4:
		level := mapLZ4Level(config.Level)
		return &streamCompressor{
			algorithm: LZ4,
			limit:     limit,
			writer: func(w io.Writer) (io.WriteCloser, error) {
				lw := lz4.NewWriter(w)
				if err := lw.Apply(lz4.CompressionLevelOption(level)); err != nil {
					return nil, err
				}
				return lw, nil
			},
			reader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(lz4.NewReader(r)), nil },
		}, nil
	case Snappy:
		return &blockCompressor{
			algorithm:  Snappy,
			limit:      limit,
			encode:     func(data []byte) []byte { return snappy.Encode(nil, data) },
			decodedLen: snappy.DecodedLen,
			decode:     func(data []byte) ([]byte, error) { return snappy.Decode(nil, data) },
		}, nil
	case S2:
		return &blockCompressor{
			algorithm:  S2,
			limit:      limit,
			encode:     func(data []byte) []byte { return s2.Encode(nil, data) },
			decodedLen: s2.DecodedLen,
			decode:     func(data []byte) ([]byte, error) { return s2.Decode(nil, data) },
		}, nil
	case Zstd:
		return newZstdCompressor(config.Level, limit)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// CompressorPool shares compressors between goroutines.
type CompressorPool struct {
	pool sync.Pool
}

// NewCompressorPool creates a pool of compressors built from config. The
// configuration is checked once up front.
func NewCompressorPool(config *Config) (*CompressorPool, error) {
	if _, err := NewCompressor(config); err != nil {
		return nil, err
	}
	cp := &CompressorPool{}
	cp.pool.New = func() interface{} {
		comp, _ := NewCompressor(config)
		return comp
	}
	return cp, nil
}

// Compress compresses data using a pooled compressor
func (cp *CompressorPool) Compress(data []byte) ([]byte, error) {
	c := cp.pool.Get().(Compressor)
	defer cp.pool.Put(c)
	return c.Compress(data)
}

// Decompress decompresses data using a pooled compressor
func (cp *CompressorPool) Decompress(data []byte) ([]byte, error) {
	c := cp.pool.Get().(Compressor)
	defer cp.pool.Put(c)
	return c.Decompress(data)
}

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte) ([]byte, error)   { return bytes.Clone(data), nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return bytes.Clone(data), nil }
func (noneCompressor) Algorithm() Algorithm                    { return None }

// streamCompressor drives the frame formats that only offer a streaming API.
type streamCompressor struct {
	algorithm Algorithm
	limit     int64
	writer    func(io.Writer) (io.WriteCloser, error)
	reader    func(io.Reader) (io.ReadCloser, error)
}

func (sc *streamCompressor) Algorithm() Algorithm { return sc.algorithm }

func (sc *streamCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := sc.writer(&buf)
	if err != nil {
		return nil, sc.fail(err, "compress")
	}
	if _, err := w.Write(data); err != nil {
		return nil, sc.fail(err, "compress")
	}
	if err := w.Close(); err != nil {
		return nil, sc.fail(err, "compress")
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := sc.reader(bytes.NewReader(data))
	if err != nil {
		return nil, sc.fail(err, "decompress")
	}
	defer r.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, sc.limit+1))
	if err != nil {
		return nil, sc.fail(err, "decompress")
	}
	if n > sc.limit {
		return nil, tooLarge(sc.algorithm, sc.limit)
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) fail(err error, op string) error {
	return errors.Wrap(err, errors.ErrorTypeData, op+" failed").
		WithDetail("algorithm", string(sc.algorithm))
}

// blockCompressor handles the snappy style block formats, which record the
// decoded length up front.
type blockCompressor struct {
	algorithm  Algorithm
	limit      int64
	encode     func([]byte) []byte
	decodedLen func([]byte) (int, error)
	decode     func([]byte) ([]byte, error)
}

func (bc *blockCompressor) Algorithm() Algorithm { return bc.algorithm }

func (bc *blockCompressor) Compress(data []byte) ([]byte, error) {
	return bc.encode(data), nil
}

func (bc *blockCompressor) Decompress(data []byte) ([]byte, error) {
	n, err := bc.decodedLen(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompress failed").
			WithDetail("algorithm", string(bc.algorithm))
	}
	if int64(n) > bc.limit {
		return nil, tooLarge(bc.algorithm, bc.limit)
	}
	out, err := bc.decode(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompress failed").
			WithDetail("algorithm", string(bc.algorithm))
	}
	return out, nil
}

// Zstd compressor
type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCompressor(level Level, limit int64) (*zstdCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(mapZstdLevel(level)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd encoder")
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(limit)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd decoder")
	}
	return &zstdCompressor{encoder: enc, decoder: dec}, nil
}

func (zc *zstdCompressor) Algorithm() Algorithm { return Zstd }

// Compress uses EncodeAll, which is safe for concurrent use.
func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zc.encoder.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := zc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decompress failed").
			WithDetail("algorithm", string(Zstd))
	}
	return out, nil
}

func tooLarge(a Algorithm, limit int64) error {
	return errors.Newf(errors.ErrorTypeData, "decompressed payload exceeds %d bytes", limit).
		WithDetail("algorithm", string(a))
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

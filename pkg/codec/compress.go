package codec

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
)

// Compressor defines the interface for cache value compression
type Compressor interface {
	// Compress compresses the given data and returns compressed bytes
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses the given compressed bytes
	Decompress(compressed []byte) ([]byte, error)

	// Name returns the name/identifier of the compressor
	Name() string
}

// CompressorType represents different compression algorithms
type CompressorType string

const (
	CompressorNone    CompressorType = "none"
	CompressorGzip    CompressorType = "gzip"
	CompressorDeflate CompressorType = "deflate"
)

// CompressionConfig holds compression configuration
type CompressionConfig struct {
	// Enabled determines whether compression is enabled
	Enabled bool

	// Algorithm specifies which compression algorithm to use
	Algorithm CompressorType

	// MinSize is the minimum size in bytes before compression is applied
	// Values smaller than this will not be compressed to avoid overhead
	MinSize int

	// Level is the compression level (1-9 for gzip/deflate, -1 for default)
	Level int
}

// NewDefaultCompressionConfig creates a default compression configuration
func NewDefaultCompressionConfig() *CompressionConfig {
	return &CompressionConfig{
		Enabled:   false,
		Algorithm: CompressorGzip,
		MinSize:   1024, // 1KB minimum
		Level:     -1,   // Default level
	}
}

// WithEnabled sets whether compression is enabled
func (c *CompressionConfig) WithEnabled(enabled bool) *CompressionConfig {
	c.Enabled = enabled
	return c
}

// WithAlgorithm sets the compression algorithm
func (c *CompressionConfig) WithAlgorithm(algorithm CompressorType) *CompressionConfig {
	c.Algorithm = algorithm
	return c
}

// WithMinSize sets the minimum size threshold for compression
func (c *CompressionConfig) WithMinSize(minSize int) *CompressionConfig {
	c.MinSize = minSize
	return c
}

// WithLevel sets the compression level
func (c *CompressionConfig) WithLevel(level int) *CompressionConfig {
	c.Level = level
	return c
}

// NoOpCompressor provides a no-op implementation that doesn't compress
type NoOpCompressor struct{}

// NewNoOpCompressor creates a new no-op compressor
func NewNoOpCompressor() *NoOpCompressor {
	return &NoOpCompressor{}
}

// Compress returns the data unchanged
func (n *NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the data unchanged
func (n *NoOpCompressor) Decompress(compressed []byte) ([]byte, error) {
	return compressed, nil
}

// Name returns the compressor name
func (n *NoOpCompressor) Name() string {
	return "none"
}

// GzipCompressor implements compression using gzip
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a new gzip compressor with the specified level
func NewGzipCompressor(level int) *GzipCompressor {
	return &GzipCompressor{level: level}
}

// Compress compresses data using gzip
func (g *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write compressed data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip data
func (g *GzipCompressor) Decompress(compressed []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed data: %w", err)
	}

	return data, nil
}

// Name returns the compressor name
func (g *GzipCompressor) Name() string {
	return "gzip"
}

// DeflateCompressor implements compression using zlib/deflate
type DeflateCompressor struct {
	level int
}

// NewDeflateCompressor creates a new deflate compressor with the specified level
func NewDeflateCompressor(level int) *DeflateCompressor {
	return &DeflateCompressor{level: level}
}

// Compress compresses data using deflate
func (d *DeflateCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, d.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write compressed data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close deflate writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses deflate data
func (d *DeflateCompressor) Decompress(compressed []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed data: %w", err)
	}

	return data, nil
}

// Name returns the compressor name
func (d *DeflateCompressor) Name() string {
	return "deflate"
}

// NewCompressor creates a new compressor based on the configuration
func NewCompressor(config *CompressionConfig) (Compressor, error) {
	if config == nil || !config.Enabled {
		return NewNoOpCompressor(), nil
	}

	switch config.Algorithm {
	case CompressorNone:
		return NewNoOpCompressor(), nil
	case CompressorGzip:
		return NewGzipCompressor(config.Level), nil
	case CompressorDeflate:
		return NewDeflateCompressor(config.Level), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// Payload header bytes for the compressing codec. One byte marks whether
// the remainder of the payload went through the compressor.
const (
	headerPlain      byte = 0
	headerCompressed byte = 1
)

// compressedCodec wraps an inner codec with transparent compression
type compressedCodec struct {
	inner      Codec
	compressor Compressor
	minSize    int
}

// WithCompression wraps a codec so payloads at or above the configured
// minimum size are compressed. Compression is only kept when it actually
// shrinks the payload.
func WithCompression(inner Codec, config *CompressionConfig) (Codec, error) {
	if config == nil || !config.Enabled {
		return inner, nil
	}

	compressor, err := NewCompressor(config)
	if err != nil {
		return nil, err
	}

	return &compressedCodec{
		inner:      inner,
		compressor: compressor,
		minSize:    config.MinSize,
	}, nil
}

// Marshal serializes with the inner codec, then compresses if worthwhile
func (c *compressedCodec) Marshal(v any) ([]byte, error) {
	serialized, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	if len(serialized) >= c.minSize {
		compressed, err := c.compressor.Compress(serialized)
		if err != nil {
			return nil, fmt.Errorf("failed to compress data: %w", err)
		}
		if len(compressed) < len(serialized) {
			return append([]byte{headerCompressed}, compressed...), nil
		}
	}

	return append([]byte{headerPlain}, serialized...), nil
}

// Unmarshal decompresses if needed, then deserializes with the inner codec
func (c *compressedCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}

	serialized := data[1:]
	if data[0] == headerCompressed {
		decompressed, err := c.compressor.Decompress(serialized)
		if err != nil {
			return fmt.Errorf("failed to decompress data: %w", err)
		}
		serialized = decompressed
	}

	return c.inner.Unmarshal(serialized, v)
}

// Name returns the codec name
func (c *compressedCodec) Name() string {
	return c.inner.Name() + "+" + c.compressor.Name()
}

// Ensure interfaces are implemented
var (
	_ Compressor = (*NoOpCompressor)(nil)
	_ Compressor = (*GzipCompressor)(nil)
	_ Compressor = (*DeflateCompressor)(nil)
	_ Codec      = (*compressedCodec)(nil)
)

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	Name  string
	Count int
	Tags  []string
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSONCodec{}

	in := payload{Name: "users", Count: 3, Tags: []string{"a", "b"}}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out payload
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONMarshalUnsupported(t *testing.T) {
	c := JSONCodec{}
	if _, err := c.Marshal(make(chan int)); err == nil {
		t.Fatal("Expected error marshaling a channel")
	}
}

func TestGobRoundTrip(t *testing.T) {
	c := GobCodec{}

	// Gob handles map keys JSON cannot
	in := map[int]string{1: "one", 2: "two"}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[int]string
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultIsJSON(t *testing.T) {
	if Default().Name() != "json" {
		t.Fatalf("Expected default codec to be json, got %s", Default().Name())
	}
}

func TestCompressionDisabledReturnsInner(t *testing.T) {
	inner := JSONCodec{}

	c, err := WithCompression(inner, nil)
	if err != nil {
		t.Fatalf("WithCompression failed: %v", err)
	}
	if c.Name() != inner.Name() {
		t.Fatal("Expected inner codec back when compression is disabled")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	for _, algorithm := range []CompressorType{CompressorGzip, CompressorDeflate} {
		t.Run(string(algorithm), func(t *testing.T) {
			config := NewDefaultCompressionConfig().
				WithEnabled(true).
				WithAlgorithm(algorithm).
				WithMinSize(16)

			c, err := WithCompression(JSONCodec{}, config)
			if err != nil {
				t.Fatalf("WithCompression failed: %v", err)
			}

			in := payload{Name: strings.Repeat("compressible ", 100)}
			data, err := c.Marshal(in)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if data[0] != headerCompressed {
				t.Fatal("Expected large payload to be compressed")
			}

			var out payload
			if err := c.Unmarshal(data, &out); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompressionSkipsSmallPayloads(t *testing.T) {
	config := NewDefaultCompressionConfig().
		WithEnabled(true).
		WithMinSize(1 << 20)

	c, err := WithCompression(JSONCodec{}, config)
	if err != nil {
		t.Fatalf("WithCompression failed: %v", err)
	}

	data, err := c.Marshal(payload{Name: "tiny"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if data[0] != headerPlain {
		t.Fatal("Expected small payload to stay uncompressed")
	}

	var out payload
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Name != "tiny" {
		t.Fatalf("Expected 'tiny', got %q", out.Name)
	}
}

func TestCompressionKeptOnlyWhenSmaller(t *testing.T) {
	config := NewDefaultCompressionConfig().
		WithEnabled(true).
		WithMinSize(1)

	c, err := WithCompression(JSONCodec{}, config)
	if err != nil {
		t.Fatalf("WithCompression failed: %v", err)
	}

	// A tiny payload compresses larger than it starts
	data, err := c.Marshal("x")
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if data[0] != headerPlain {
		t.Fatal("Expected incompressible payload to stay plain")
	}
}

func TestCompressionUnmarshalEmptyPayload(t *testing.T) {
	config := NewDefaultCompressionConfig().WithEnabled(true)
	c, err := WithCompression(JSONCodec{}, config)
	if err != nil {
		t.Fatalf("WithCompression failed: %v", err)
	}

	var out payload
	if err := c.Unmarshal(nil, &out); err == nil {
		t.Fatal("Expected error for empty payload")
	}
}

func TestCompressors(t *testing.T) {
	tests := []struct {
		name       string
		compressor Compressor
	}{
		{"noop", NewNoOpCompressor()},
		{"gzip", NewGzipCompressor(-1)},
		{"deflate", NewDeflateCompressor(-1)},
	}

	original := bytes.Repeat([]byte("fncache "), 64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := tt.compressor.Compress(original)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}

			restored, err := tt.compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(original, restored) {
				t.Fatal("Round trip corrupted data")
			}
		})
	}
}

func TestNewCompressorUnsupportedAlgorithm(t *testing.T) {
	config := &CompressionConfig{Enabled: true, Algorithm: "zstd"}
	if _, err := NewCompressor(config); err == nil {
		t.Fatal("Expected error for unsupported algorithm")
	}
}

package sheets

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var newZstdReader = zstd.NewReader

// acceptEncoding maps a ClientConfig compression to the Accept-Encoding value
// sent to the data source.
func acceptEncoding(compression string) (string, error) {
	switch strings.ToUpper(compression) {
	case "", "NONE", "IDENTITY":
		return "", nil
	case "GZIP":
		return "gzip", nil
	case "DEFLATE":
		return "deflate", nil
	case "ZSTD", "ZSTANDARD":
		return "zstd", nil
	case "SNAPPY":
		return "snappy", nil
	case "LZ4":
		return "lz4", nil
	default:
		return "", fmt.Errorf("unsupported compression: %s", compression)
	}
}

// decompressPayload decodes a response body sent with the given
// Content-Encoding.
func decompressPayload(payload []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return payload, nil
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case "deflate":
		reader, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case "zstd":
		decoder, err := newZstdReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(payload, nil)
	case "snappy", "x-snappy-framed":
		if out, err := snappy.Decode(nil, payload); err == nil {
			return out, nil
		}
		return io.ReadAll(snappy.NewReader(bytes.NewReader(payload)))
	case "lz4":
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", encoding)
	}
}

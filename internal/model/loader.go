package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Load reads a serialized classifier from path. YAML and JSON artifacts are accepted;
// a ".zst" suffix marks a zstd-compressed artifact. Every failure wraps ErrModelUnavailable.
func Load(path string) (*LinearModel, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no artifact path configured", ErrModelUnavailable)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}

	if strings.HasSuffix(path, ".zst") {
		raw, err = decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress %s: %v", ErrModelUnavailable, path, err)
		}
	}

	return Parse(raw)
}

// Parse decodes an uncompressed artifact.
func Parse(data []byte) (*LinearModel, error) {
	var m LinearModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", ErrModelUnavailable, err)
	}
	if m.Threshold == 0 {
		m.Threshold = DefaultThreshold
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &m, nil
}

func decompress(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(raw, nil)
}

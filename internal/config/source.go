package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/bibin-skaria/vislayers/internal/errors"
)

// CompressedSuffix marks files stored zstd-compressed.
const CompressedSuffix = ".zst"

// ReadSource reads a config or scene file. Files ending in CompressedSuffix
// are decompressed transparently.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New().
			Category(errors.CategoryFilesystem).
			Operation("read").
			Messagef("cannot read %s", path).
			Cause(err).
			Build()
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return data, nil
	}
	return Decompress(data)
}

// Decompress decodes a zstd stream.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFilesystem, "decompress")
	}
	defer decoder.Close()

	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryFilesystem, "decompress")
	}
	return out, nil
}

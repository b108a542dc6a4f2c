// Package persistence implements a self-describing snapshot format for
// index state.
//
// Layout (little-endian):
//
//	magic uint32 | version uint32 | codec name | compression name |
//	payload length uint64 | payload | crc32 uint32
//
// Names are length-prefixed (uint16). The checksum covers the stored
// (compressed) payload bytes and guards against accidental corruption,
// not tampering.
package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/vexiter/vexiter/codec"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "VXS0").
	MagicNumber = 0x56585330

	// Version is the current snapshot format version.
	Version = 1
)

var (
	// ErrInvalidMagic indicates the stream is not a snapshot.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrInvalidVersion indicates an unsupported format version.
	ErrInvalidVersion = errors.New("unsupported snapshot version")

	// ErrChecksumMismatch indicates payload corruption.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Compression selects the payload compression scheme.
type Compression string

// Supported compression schemes.
const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// Options configures snapshot creation.
type Options struct {
	// Codec encodes the payload. Defaults to codec.Default.
	Codec codec.Codec

	// Compression selects the payload compression. Defaults to none.
	Compression Compression
}

// Save writes v as a snapshot to w.
func Save(w io.Writer, v any, optFns ...func(o *Options)) error {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionNone,
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	payload, err := opts.Codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	stored, err := compress(payload, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(MagicNumber)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(Version)); err != nil {
		return err
	}
	if err := writeName(w, opts.Codec.Name()); err != nil {
		return err
	}
	if err := writeName(w, string(opts.Compression)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(stored))); err != nil {
		return err
	}
	if _, err := w.Write(stored); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, crc32.ChecksumIEEE(stored))
}

// Load reads a snapshot from r and decodes its payload into v.
func Load(r io.Reader, v any) error {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return err
	}
	if magic != MagicNumber {
		return ErrInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != Version {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	codecName, err := readName(r)
	if err != nil {
		return err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return fmt.Errorf("unknown codec %q", codecName)
	}

	compressionName, err := readName(r)
	if err != nil {
		return err
	}

	var payloadLen uint64
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return err
	}

	stored := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, stored); err != nil {
		return err
	}

	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return err
	}
	if sum != crc32.ChecksumIEEE(stored) {
		return ErrChecksumMismatch
	}

	payload, err := decompress(stored, Compression(compressionName))
	if err != nil {
		return fmt.Errorf("decompress payload: %w", err)
	}

	return c.Unmarshal(payload, v)
}

func writeName(w io.Writer, name string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	_, err := w.Write([]byte(name))

	return err
}

func readName(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}

	name := make([]byte, n)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", err
	}

	return string(name), nil
}

func compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return payload, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

func decompress(stored []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, "":
		return stored, nil
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(stored)))
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(stored))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

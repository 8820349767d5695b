// SPDX-License-Identifier: MIT

// Package envelope converts between raw save bytes and the text form a game
// stores: "$" + 2-digit version + "s" + base64(zlib(cipher(raw))) + "$e".
package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

var (
	ErrInvalidEnvelope = errors.New("save string not in a known format")
	ErrInvalidBase64   = errors.New("save data not valid base64")
	ErrCompression     = errors.New("save data compression error")
	ErrChecksum        = errors.New("save data checksum mismatch")
)

// CompressionLevel is the zlib level used by Wrap.
const CompressionLevel = 6

// ChecksumSize is the length of the trailing CRC32 added by AppendChecksum.
const ChecksumSize = 4

var cipherKey = []byte("therealmisalie")

var envelopeRe = regexp.MustCompile(`^\$([0-9]{2})s(.*)\$e$`)

// cipher XORs data in place with the repeating key. It is its own inverse.
func cipher(data []byte) {
	for i := range data {
		data[i] ^= cipherKey[i%len(cipherKey)]
	}
}

// Unwrap extracts the raw bytes and the version tag from a save string.
// Surrounding whitespace is ignored.
func Unwrap(s string) ([]byte, int, error) {
	m := envelopeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, 0, ErrInvalidEnvelope
	}
	version, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, 0, ErrInvalidEnvelope
	}

	compressed, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, 0, errors.Wrap(ErrInvalidBase64, err.Error())
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, 0, errors.Wrap(ErrCompression, err.Error())
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, 0, errors.Wrap(ErrCompression, err.Error())
	}

	cipher(raw)
	return raw, version, nil
}

// Wrap produces the save string for raw with the given version tag.
func Wrap(raw []byte, version int) (string, error) {
	if version < 0 || version > 99 {
		return "", errors.Errorf("save version %d out of range 0..99", version)
	}
	data := bytes.Clone(raw)
	cipher(data)

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, CompressionLevel)
	if err != nil {
		return "", errors.Wrap(ErrCompression, err.Error())
	}
	if _, err := zw.Write(data); err != nil {
		return "", errors.Wrap(ErrCompression, err.Error())
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(ErrCompression, err.Error())
	}

	return fmt.Sprintf("$%02ds%s$e", version, base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// Checksum returns the CRC32 (IEEE) of raw.
func Checksum(raw []byte) uint32 {
	return crc32.ChecksumIEEE(raw)
}

// AppendChecksum returns raw followed by its big-endian CRC32.
func AppendChecksum(raw []byte) []byte {
	out := make([]byte, len(raw), len(raw)+ChecksumSize)
	copy(out, raw)
	return binary.BigEndian.AppendUint32(out, Checksum(raw))
}

// SplitChecksum verifies the trailing big-endian CRC32 of data and returns
// the bytes it covers.
func SplitChecksum(data []byte) ([]byte, error) {
	if len(data) < ChecksumSize {
		return nil, errors.Wrapf(ErrChecksum, "%d bytes is too short to hold a checksum", len(data))
	}
	n := len(data) - ChecksumSize
	raw, sum := data[:n], binary.BigEndian.Uint32(data[n:])
	if got := Checksum(raw); got != sum {
		return nil, errors.Wrapf(ErrChecksum, "stored %08x, computed %08x", sum, got)
	}
	return raw, nil
}

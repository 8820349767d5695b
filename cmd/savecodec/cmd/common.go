// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/aaronlindsay879/savecodec/codec"
	"github.com/aaronlindsay879/savecodec/envelope"
	"github.com/aaronlindsay879/savecodec/schema"
)

const (
	formatEnvelope = "envelope"
	formatRaw      = "raw"
	formatHex      = "hex"
)

// loadSchema reads the schema named by --schema or --compact.
func loadSchema(cmd *Command) (*schema.Schema, error) {
	path, compact := flagSchema.String(cmd), flagCompact.String(cmd)
	switch {
	case path != "" && compact != "":
		return nil, errors.Errorf("--%s and --%s are mutually exclusive", flagSchema, flagCompact)
	case path != "":
		s, err := schema.ParseFile(path)
		return s, errors.Wrapf(err, "loading schema %s", path)
	case compact != "":
		s, err := schema.ParseCompact(compact)
		return s, errors.Wrap(err, "parsing compact schema")
	}
	return nil, errors.Errorf("one of --%s or --%s is required", flagSchema, flagCompact)
}

func loadCodec(cmd *Command) (*codec.Codec, error) {
	s, err := loadSchema(cmd)
	if err != nil {
		return nil, err
	}
	opts := []codec.Option{codec.WithLogger(cmd.log)}
	if flagLenient.Bool(cmd) {
		opts = append(opts, codec.WithLenientCounts())
	}
	return codec.New(s, opts...)
}

// readInput reads the named file, or stdin when the name is absent or "-".
func readInput(cmd *Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "reading stdin")
	}
	data, err := os.ReadFile(args[0])
	return data, errors.Wrapf(err, "reading %s", args[0])
}

// unwrapData turns input in the --format layout into record bytes and the
// save version tag, verifying and stripping the checksum when asked.
func unwrapData(cmd *Command, data []byte) ([]byte, int, error) {
	var (
		raw     []byte
		version int
		err     error
	)
	switch format := flagFormat.String(cmd); format {
	case formatEnvelope:
		raw, version, err = envelope.Unwrap(string(data))
	case formatRaw:
		raw = data
	case formatHex:
		raw, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	default:
		return nil, 0, errors.Errorf("unknown --%s %q", flagFormat, format)
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading save data")
	}
	if flagChecksum.Bool(cmd) {
		raw, err = envelope.SplitChecksum(raw)
		if err != nil {
			return nil, 0, err
		}
	}
	return raw, version, nil
}

// wrapData is the inverse of unwrapData.
func wrapData(cmd *Command, raw []byte, version int) ([]byte, error) {
	if flagChecksum.Bool(cmd) {
		raw = envelope.AppendChecksum(raw)
	}
	switch format := flagFormat.String(cmd); format {
	case formatEnvelope:
		s, err := envelope.Wrap(raw, version)
		if err != nil {
			return nil, err
		}
		return []byte(s + "\n"), nil
	case formatRaw:
		return raw, nil
	case formatHex:
		return []byte(hex.EncodeToString(raw) + "\n"), nil
	default:
		return nil, errors.Errorf("unknown --%s %q", flagFormat, format)
	}
}

func writeJSON(w io.Writer, rec *codec.Record) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "formatting record")
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

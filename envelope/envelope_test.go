// SPDX-License-Identifier: MIT

package envelope

import (
	"bytes"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestUnwrapKnownSave(t *testing.T) {
	raw, version, err := Unwrap("$00seJwrLi0GAAK5AVw=$e")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(version, 0))
	qt.Assert(t, qt.DeepEquals(raw, []byte{7, 29, 22}))

	// Trailing newlines from save files are tolerated.
	raw, _, err = Unwrap("$00seJwrLi0GAAK5AVw=$e\n")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(raw, []byte{7, 29, 22}))
}

func TestWrapRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		version int
	}{
		{"small", []byte{7, 29, 22}, 0},
		{"empty", []byte{}, 1},
		{"longer than key", bytes.Repeat([]byte{0x00, 0xff, 0x10}, 40), 42},
		{"max version", []byte("hello"), 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Wrap(tt.raw, tt.version)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Matches(s, `\$[0-9]{2}s.*\$e`))

			raw, version, err := Unwrap(s)
			qt.Assert(t, qt.IsNil(err))
			qt.Assert(t, qt.Equals(version, tt.version))
			qt.Assert(t, qt.DeepEquals(raw, tt.raw))
		})
	}
}

func TestWrapRejectsVersion(t *testing.T) {
	for _, v := range []int{-1, 100} {
		_, err := Wrap([]byte{1}, v)
		qt.Check(t, qt.IsNotNil(err), qt.Commentf("version %d", v))
	}
}

func TestWrapLeavesInputUntouched(t *testing.T) {
	raw := []byte{1, 2, 3}
	_, err := Wrap(raw, 0)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(raw, []byte{1, 2, 3}))
}

func TestUnwrapErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no markers", "eJwrLi0GAAK5AVw=", ErrInvalidEnvelope},
		{"one digit version", "$0seJwrLi0GAAK5AVw=$e", ErrInvalidEnvelope},
		{"missing end", "$00seJwrLi0GAAK5AVw=", ErrInvalidEnvelope},
		{"bad base64", "$00s!!!!$e", ErrInvalidBase64},
		{"not zlib", "$00sAAAA$e", ErrCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Unwrap(tt.input)
			qt.Assert(t, qt.ErrorIs(err, tt.want))
		})
	}
}

func TestChecksum(t *testing.T) {
	raw := []byte("123456789")
	// Standard CRC-32/ISO-HDLC check value.
	qt.Assert(t, qt.Equals(Checksum(raw), uint32(0xcbf43926)))

	withSum := AppendChecksum(raw)
	qt.Assert(t, qt.DeepEquals(withSum[len(raw):], []byte{0xcb, 0xf4, 0x39, 0x26}))
	qt.Assert(t, qt.DeepEquals(raw, []byte("123456789")))

	got, err := SplitChecksum(withSum)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(got, raw))

	withSum[0] ^= 0x01
	_, err = SplitChecksum(withSum)
	qt.Assert(t, qt.ErrorIs(err, ErrChecksum))

	_, err = SplitChecksum([]byte{1, 2})
	qt.Assert(t, qt.ErrorIs(err, ErrChecksum))
}

// SPDX-License-Identifier: MIT

package codec

import (
	"testing"
)

// FuzzDecode checks that arbitrary input never panics the decoder.
//
// Run with:
//
//	go test -fuzz=FuzzDecode -fuzztime=60s ./codec
func FuzzDecode(f *testing.F) {
	c := mustCodec(f, nestedSchema)

	f.Add([]byte{0x02, 0x02, 0x01, 0x00, 0x64, 0x00, 0x32, 0x02, 0x00, 0xc8, 0x00, 0x00, 0x3f, 0xc0, 0x00, 0x00})
	f.Add([]byte{0x01, 0x01, 0x01, 0x00, 0x64})
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = c.Decode(data)
	})
}

// FuzzDecodeEncode checks decode(encode(decode(b))) == decode(b) and that
// re-encoding is stable.
func FuzzDecodeEncode(f *testing.F) {
	codecs := []*Codec{
		mustCodec(f, countedSchema),
		mustCodec(f, nestedSchema),
	}

	f.Add([]byte{0x02, 0x00, 0x03, 0x01, 0x05, 0, 0, 0, 0x06, 0, 0, 0, 0x07, 0, 0, 0})
	f.Add([]byte{0x02, 0x00, 0x00, 0x7f})
	f.Add([]byte{0x01, 0x01, 0x01, 0x00, 0x64})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, c := range codecs {
			rec, n, err := c.DecodePrefix(data)
			if err != nil {
				continue
			}
			if n > len(data) {
				t.Fatalf("consumed %d of %d bytes", n, len(data))
			}

			encoded, err := c.Encode(rec)
			if err != nil {
				t.Fatalf("encode after decode failed: %v", err)
			}
			if len(encoded) != n {
				t.Fatalf("encoded %d bytes, decoded %d", len(encoded), n)
			}

			again, err := c.Decode(encoded)
			if err != nil {
				t.Fatalf("roundtrip decode failed: %v", err)
			}
			if !rec.Equal(again) {
				t.Fatalf("roundtrip mismatch:\n got %s\nwant %s", again, rec)
			}

			stable, err := c.Encode(again)
			if err != nil {
				t.Fatalf("second encode failed: %v", err)
			}
			if string(stable) != string(encoded) {
				t.Fatalf("re-encoding not stable: %x vs %x", stable, encoded)
			}
		}
	})
}

// SPDX-License-Identifier: MIT

package codec

import (
	"encoding/hex"
	"testing"

	"github.com/aaronlindsay879/savecodec/schema"
)

// Two players at version 2 with a score.
var benchPayloadHex = "0202" + "0100640032" + "0200c80000" + "3fc00000"

func BenchmarkDecode(b *testing.B) {
	payload, _ := hex.DecodeString(benchPayloadHex)
	c := mustCodec(b, nestedSchema)

	// Warmup and verify
	rec, err := c.Decode(payload)
	if err != nil {
		b.Fatalf("Failed to decode: %v", err)
	}
	if v, _ := rec.Get("version"); v != uint8(2) {
		b.Fatalf("Unexpected version: %v", v)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Decode(payload)
	}
}

func BenchmarkEncode(b *testing.B) {
	payload, _ := hex.DecodeString(benchPayloadHex)
	c := mustCodec(b, nestedSchema)
	rec, err := c.Decode(payload)
	if err != nil {
		b.Fatalf("Failed to decode: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Encode(rec)
	}
}

func BenchmarkCompileAndDecode(b *testing.B) {
	payload, _ := hex.DecodeString(benchPayloadHex)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, _ := schema.Parse([]byte(nestedSchema))
		c, _ := New(s)
		_, _ = c.Decode(payload)
	}
}

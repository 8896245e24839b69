package rpc

import (
	"encoding/hex"
	"testing"
)

func TestNamehash(t *testing.T) {
	// Reference vectors from the ENS namehash definition.
	tests := []struct {
		name string
		want string
	}{
		{"", "0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(namehash(tt.name).Bytes())
			if got != tt.want {
				t.Fatalf("namehash(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestReverseNodeNormalizesAddress(t *testing.T) {
	lower := reverseNode("0xb8c2c29ee19d8307cb7255e1cd9cbde883a267d5")
	mixed := reverseNode("0xB8c2C29ee19D8307cb7255e1Cd9CbDE883A267d5")
	if lower != mixed {
		t.Fatal("reverse node must be case-insensitive in the address")
	}
}

func TestDecodeABIString(t *testing.T) {
	encode := func(s string) []byte {
		raw := make([]byte, 64+len(s))
		raw[31] = 0x20 // offset 32
		raw[63] = byte(len(s))
		copy(raw[64:], s)
		return raw
	}

	tests := []struct {
		name    string
		raw     []byte
		want    string
		wantErr bool
	}{
		{"simple name", encode("vitalik.eth"), "vitalik.eth", false},
		{"empty string", encode(""), "", false},
		{"empty response", nil, "", false},
		{"truncated header", make([]byte, 40), "", true},
		{"offset past end", func() []byte {
			raw := make([]byte, 64)
			raw[31] = 0xff
			return raw
		}(), "", true},
		{"length past end", func() []byte {
			raw := encode("abc")
			raw[63] = 0xff
			return raw
		}(), "", true},
		{"offset near uint64 max", func() []byte {
			// Adding 32 to this offset wraps; the check must not.
			raw := make([]byte, 64)
			for i := 24; i < 32; i++ {
				raw[i] = 0xff
			}
			return raw
		}(), "", true},
		{"offset wider than uint64", func() []byte {
			raw := make([]byte, 64)
			for i := 0; i < 32; i++ {
				raw[i] = 0xff
			}
			return raw
		}(), "", true},
		{"length near uint64 max", func() []byte {
			// offset 32, length 2^64-1: start+32+length wraps past the
			// response size.
			raw := make([]byte, 64)
			raw[31] = 0x20
			for i := 56; i < 64; i++ {
				raw[i] = 0xff
			}
			return raw
		}(), "", true},
		{"length wider than uint64", func() []byte {
			raw := make([]byte, 96)
			raw[31] = 0x20
			for i := 32; i < 64; i++ {
				raw[i] = 0xff
			}
			return raw
		}(), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeABIString(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

package balance

import (
	"math/big"
	"testing"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		decimals int
		want     string
	}{
		{"wei to ether", "1234567890123456789", 18, "1.234567"},
		{"zero", "0", 6, "0.000000"},
		{"truncates not rounds", "1999999999999999999", 18, "1.999999"},
		{"exact whole", "5000000", 6, "5.000000"},
		{"small fraction keeps leading zeros", "42", 18, "0.000000"},
		{"six decimals", "1500000", 6, "1.500000"},
		{"fewer than six decimals", "12345", 4, "1.2345"},
		{"zero decimals", "123", 0, "123"},
		{"large balance", "123456789012345678901234567890", 18, "123456789012.345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := new(big.Int).SetString(tt.balance, 10)
			if !ok {
				t.Fatalf("bad fixture %q", tt.balance)
			}
			if got := FormatBalance(b, tt.decimals); got != tt.want {
				t.Errorf("FormatBalance(%s, %d) = %q, want %q", tt.balance, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestLookupToken(t *testing.T) {
	// Known token, mixed-case address normalizes to the registry key.
	addr, info := lookupToken("ethereum", "0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2")
	if addr != "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" {
		t.Errorf("address not normalized: %s", addr)
	}
	if info.Symbol != "WETH" || info.Decimals != 18 {
		t.Errorf("info = %+v, want WETH/18", info)
	}

	// Unknown token defaults to 18 decimals, no symbol.
	_, info = lookupToken("ethereum", "0x0000000000000000000000000000000000000001")
	if info.Symbol != "" || info.Decimals != DefaultDecimals {
		t.Errorf("unknown token info = %+v", info)
	}

	// Unknown network behaves the same.
	_, info = lookupToken("fantasynet", "0x0000000000000000000000000000000000000001")
	if info.Decimals != DefaultDecimals {
		t.Errorf("unknown network info = %+v", info)
	}
}

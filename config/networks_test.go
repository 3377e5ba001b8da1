package config

import "testing"

func TestLookupNetwork_Known(t *testing.T) {
	n, ok := LookupNetwork("ethereum")
	if !ok {
		t.Fatal("LookupNetwork(ethereum) not found")
	}
	if n.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", n.ChainID)
	}
	if len(n.RPCEndpoints) == 0 {
		t.Error("no RPC endpoints configured")
	}
}

func TestLookupNetwork_Unknown(t *testing.T) {
	if _, ok := LookupNetwork("fantasynet"); ok {
		t.Error("LookupNetwork(fantasynet) should not be found")
	}
}

func TestNetworkNames_SortedAndComplete(t *testing.T) {
	names := NetworkNames()
	if len(names) != len(networks) {
		t.Fatalf("NetworkNames() returned %d names, registry has %d", len(names), len(networks))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestNetworkByChainID(t *testing.T) {
	n, ok := NetworkByChainID(137)
	if !ok || n.Name != "polygon" {
		t.Errorf("NetworkByChainID(137) = %v, %v; want polygon", n.Name, ok)
	}
	if _, ok := NetworkByChainID(999999); ok {
		t.Error("NetworkByChainID(999999) should not be found")
	}
}

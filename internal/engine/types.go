package engine

// ScanTrack identifies one of the two merkle scans the engine runs per
// chain.
type ScanTrack string

const (
	TrackUTXO ScanTrack = "utxo"
	TrackTXID ScanTrack = "txid"
)

// ScanStatus is the lifecycle of a merkle scan.
type ScanStatus string

const (
	ScanStarted    ScanStatus = "Started"
	ScanUpdated    ScanStatus = "Updated"
	ScanComplete   ScanStatus = "Complete"
	ScanIncomplete ScanStatus = "Incomplete"
)

// ScanEvent is a progress report pushed by the engine's background
// scanning.
type ScanEvent struct {
	ChainID  uint64     `json:"chain_id"`
	Track    ScanTrack  `json:"track"`
	Status   ScanStatus `json:"status"`
	Progress float64    `json:"progress"` // 0..1
}

// WalletInfo identifies a wallet held by the engine.
type WalletInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// TokenType distinguishes fungible balances from NFT holdings.
type TokenType string

const (
	TokenFungible TokenType = "erc20"
	TokenNFT      TokenType = "nft"
)

// BalanceEntry is a raw per-token balance as reported by the engine.
// Balance is a decimal string in the token's smallest unit.
type BalanceEntry struct {
	TokenAddress string    `json:"token_address"`
	TokenType    TokenType `json:"token_type"`
	Balance      string    `json:"balance"`
}

// HistoryEntry is one shielded transaction in a wallet's history.
type HistoryEntry struct {
	TxID         string `json:"txid"`
	BlockNumber  uint64 `json:"block_number"`
	Timestamp    int64  `json:"timestamp"`
	TokenAddress string `json:"token_address"`
	Amount       string `json:"amount"` // smallest unit, negative for spends
}

// FeeData is the fee snapshot a provider reports when it connects.
type FeeData struct {
	MaxFeePerGas         uint64 `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas uint64 `json:"max_priority_fee_per_gas"`
}

package types

// Transaction represents a broadcast blockchain transaction.
//
// Fields:
// - Hash: the hash of the transaction.
// - From: the address from which the transaction is sent.
// - To: the contract the transaction calls.
// - Nonce: the nonce of the transaction.
// - ChainID: the unique identifier for the chain where the transaction was sent.
type Transaction struct {
	Hash    string
	From    string
	To      string
	Nonce   uint64
	ChainID uint64
}

// TransactionStatus is the receipt outcome of a broadcast transaction.
type TransactionStatus string

const (
	// TxPending means no final receipt was observed.
	TxPending TransactionStatus = "PENDING"
	// TxDone means the transaction was mined successfully and has enough confirmations.
	TxDone TransactionStatus = "DONE"
	// TxFailed means the transaction was mined and reverted.
	TxFailed TransactionStatus = "FAILED"
)

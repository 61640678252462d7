package domain

import "context"

// Proof chains known to the worker
const (
	ProofChainSui = "sui"
)

// ProofCreationResult identifies the on-chain proof produced for a hash.
type ProofCreationResult struct {
	TxDigest string `json:"tx_digest"`
	ObjectID string `json:"object_id"`
}

// ProofClient anchors a data hash and its creation time on a blockchain.
// CreateProof has an irreversible external effect and is not idempotent.
type ProofClient interface {
	CreateProof(ctx context.Context, dataHashHex string, createdAtSeconds uint64) (*ProofCreationResult, error)
}

// ProofClientFactory resolves the proof client registered for a chain.
type ProofClientFactory interface {
	RegisterClient(chain string, client ProofClient)
	GetClient(chain string) (ProofClient, error)
}

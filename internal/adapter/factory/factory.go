package factory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alfanzaky/proofanchor/internal/domain"
)

// proofClientFactory is a thread-safe registry mapping a chain name to its
// proof client, so another chain can be added without touching the
// consumer or the retry policy.
type proofClientFactory struct {
	mu      sync.RWMutex
	clients map[string]domain.ProofClient
}

// NewProofClientFactory creates a new proof client registry instance.
func NewProofClientFactory() domain.ProofClientFactory {
	return &proofClientFactory{
		clients: make(map[string]domain.ProofClient),
	}
}

// RegisterClient registers a client under the given chain name.
func (f *proofClientFactory) RegisterClient(chain string, client domain.ProofClient) {
	if client == nil {
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(chain))
	if normalized == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[normalized] = client
}

// GetClient returns the proof client registered for a chain.
func (f *proofClientFactory) GetClient(chain string) (domain.ProofClient, error) {
	normalized := strings.ToLower(strings.TrimSpace(chain))
	if normalized == "" {
		return nil, fmt.Errorf("proof chain is required")
	}

	f.mu.RLock()
	client, ok := f.clients[normalized]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("proof client for %s not found", normalized)
	}

	return client, nil
}

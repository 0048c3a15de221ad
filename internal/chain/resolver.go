package chain

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps chain identifiers to RPC endpoints and hands out one shared
// client per chain. Clients are reused across contracts on the same chain;
// all use is sequential so no synchronization is needed.
type Resolver struct {
	endpoints map[string]string
	clients   map[string]*Client
}

// NewResolver builds a resolver from a chain-id -> RPC URL map.
func NewResolver(endpoints map[string]string) *Resolver {
	normalized := make(map[string]string, len(endpoints))
	for id, url := range endpoints {
		if url == "" {
			continue
		}
		normalized[strings.ToLower(id)] = url
	}
	return &Resolver{
		endpoints: normalized,
		clients:   make(map[string]*Client),
	}
}

// Resolve returns the client for the given chain identifier, dialing on
// first use. An unknown identifier is a fatal configuration error.
func (r *Resolver) Resolve(ctx context.Context, chainID string) (*Client, error) {
	id := strings.ToLower(strings.TrimSpace(chainID))
	if client, ok := r.clients[id]; ok {
		return client, nil
	}

	url, ok := r.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("unsupported blockchain %q", chainID)
	}

	client, err := NewClient(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", id, err)
	}
	r.clients[id] = client
	return client, nil
}

// Close closes every dialed client.
func (r *Resolver) Close() {
	for _, client := range r.clients {
		client.Close()
	}
}

// Package chainclient implements the read-only chain adapter (component C4):
// pool snapshot loads, gas price reads, and multicall batching, expressed as
// a capability interface so the orchestrator and its tests can swap in an
// in-memory double. The real implementation narrows the teacher's
// ContractClient.Call surface (github.com/ethereum/go-ethereum's ethclient +
// accounts/abi) to read-only use; no Send method exists here since order
// submission is out of scope.
package chainclient

import (
	"context"
	"math/big"

	"github.com/arbedge/quoteengine/internal/venue"
)

// ChainClient is the capability every orchestrator stage depends on for a
// single chain. Every method takes a context carrying the caller's deadline,
// per the design notes ("capability interfaces... taking a deadline").
type ChainClient interface {
	LoadV4Snapshot(ctx context.Context, poolAddress string) (*venue.V4Snapshot, error)
	LoadV2Snapshot(ctx context.Context, pairAddress string) (*venue.V2Snapshot, error)
	GasPriceWei(ctx context.Context) (*big.Int, error)
}

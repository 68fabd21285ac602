package chainclient

import (
	"context"
	"math/big"
	"time"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/venue"
)

// FakeChainClient is an in-memory ChainClient double for tests, per the
// design notes' "capability interfaces... enables pure in-memory doubles".
// It never touches the network; delays and errors are injected explicitly.
type FakeChainClient struct {
	V4Snapshot *venue.V4Snapshot
	V2Snap     *venue.V2Snapshot
	GasPrice   *big.Int

	LoadV4Err error
	LoadV2Err error
	GasErr    error

	// Delay simulates RPC latency, honored via context cancellation so
	// deadline-propagation tests can observe DeadlineExceeded behavior.
	Delay time.Duration
}

func (f *FakeChainClient) waitOrCancel(ctx context.Context) error {
	if f.Delay == 0 {
		return nil
	}
	timer := time.NewTimer(f.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return apierrors.Wrap(apierrors.KindDeadlineExceeded, "chain client call exceeded deadline", ctx.Err())
	}
}

func (f *FakeChainClient) LoadV4Snapshot(ctx context.Context, poolAddress string) (*venue.V4Snapshot, error) {
	if err := f.waitOrCancel(ctx); err != nil {
		return nil, err
	}
	if f.LoadV4Err != nil {
		return nil, f.LoadV4Err
	}
	return f.V4Snapshot, nil
}

func (f *FakeChainClient) LoadV2Snapshot(ctx context.Context, pairAddress string) (*venue.V2Snapshot, error) {
	if err := f.waitOrCancel(ctx); err != nil {
		return nil, err
	}
	if f.LoadV2Err != nil {
		return nil, f.LoadV2Err
	}
	return f.V2Snap, nil
}

func (f *FakeChainClient) GasPriceWei(ctx context.Context) (*big.Int, error) {
	if err := f.waitOrCancel(ctx); err != nil {
		return nil, err
	}
	if f.GasErr != nil {
		return nil, f.GasErr
	}
	return f.GasPrice, nil
}

var _ ChainClient = (*FakeChainClient)(nil)

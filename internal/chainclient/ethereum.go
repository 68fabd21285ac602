package chainclient

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/venue"
)

// defaultCallTimeout bounds a single RPC round trip, per spec.md §4.4
// ("default 8s"). The orchestrator's request-scoped deadline still governs
// on top of this; whichever fires first aborts.
const defaultCallTimeout = 8 * time.Second

// tickWindowSpacings bounds how many tick-spacing units on either side of
// the current tick the adapter fetches initialized-tick data for. Chosen
// generously so a 10,000 ETH trade cannot reach the window edge on a pool
// with reasonable liquidity depth; SnapshotTooNarrow surfaces from the
// quoter itself if a sweep still runs past it.
const tickWindowSpacings = 64

const multicall3ABIJSON = `[{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bool","name":"allowFailure","type":"bool"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call3[]","name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

const stateViewABIJSON = `[
  {"inputs":[{"internalType":"bytes32","name":"poolId","type":"bytes32"}],"name":"getSlot0","outputs":[{"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},{"internalType":"int24","name":"tick","type":"int24"},{"internalType":"uint24","name":"protocolFee","type":"uint24"},{"internalType":"uint24","name":"lpFee","type":"uint24"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"bytes32","name":"poolId","type":"bytes32"}],"name":"getLiquidity","outputs":[{"internalType":"uint128","name":"liquidity","type":"uint128"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"bytes32","name":"poolId","type":"bytes32"},{"internalType":"int16","name":"wordPos","type":"int16"}],"name":"getTickBitmap","outputs":[{"internalType":"uint256","name":"bitmap","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"bytes32","name":"poolId","type":"bytes32"},{"internalType":"int24","name":"tick","type":"int24"}],"name":"getTickLiquidity","outputs":[{"internalType":"uint128","name":"liquidityGross","type":"uint128"},{"internalType":"int128","name":"liquidityNet","type":"int128"}],"stateMutability":"view","type":"function"}
]`

const v2PairABIJSON = `[
  {"inputs":[],"name":"getReserves","outputs":[{"internalType":"uint112","name":"reserve0","type":"uint112"},{"internalType":"uint112","name":"reserve1","type":"uint112"},{"internalType":"uint32","name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"token0","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"token1","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// aerodromeFactoryABIJSON exposes the PoolFactory.getFee(pool, stable) view
// Aerodrome/Velodrome-style factories use to register a per-pair swap fee in
// basis points, per spec.md §4.4's "fee_bps is read from the pair's
// factory-registered fee slot" requirement.
const aerodromeFactoryABIJSON = `[
  {"inputs":[{"internalType":"address","name":"pool","type":"address"},{"internalType":"bool","name":"stable","type":"bool"}],"name":"getFee","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// EthereumChainClient is the production ChainClient, backed by a pooled
// go-ethereum JSON-RPC connection, matching the teacher's pattern of
// dialing once in cmd/main.go and sharing the *ethclient.Client thereafter.
type EthereumChainClient struct {
	rpc              *ethclient.Client
	stateView        common.Address
	multicall3       common.Address
	weth             common.Address
	weth0            bool // whether WETH is token0 for the configured v4 pool
	v4PoolID         [32]byte
	v2Pair           common.Address
	v2FallbackFeeBps uint32
	aerodromeFactory common.Address
	tickSpacing      int32
	feePips          uint32

	multicallABI abi.ABI
	stateABI     abi.ABI
	pairABI      abi.ABI
	factoryABI   abi.ABI

	log *logrus.Entry
}

// EthereumChainClientConfig carries everything needed to construct an
// EthereumChainClient for one chain; fields map directly onto the
// environment variables enumerated in spec.md §6.
type EthereumChainClientConfig struct {
	RPCURL           string
	StateViewAddr    string // empty on the V2-only chain
	Multicall3Addr   string
	WethAddr         string
	WethIsToken0         bool
	V4PoolID             [32]byte
	V2PairAddr           string
	V2FallbackFeeBps     uint32
	AerodromeFactoryAddr string // empty on the V4-only chain
	TickSpacing          int32
	FeePips              uint32
	Logger               *logrus.Entry
}

// NewEthereumChainClient dials rpc once and parses the fixed read-only ABIs
// used for snapshot loads. Dialing failure is a startup-time ConfigInvalid,
// matching the teacher's cmd/main.go "dial or die" style.
func NewEthereumChainClient(cfg EthereumChainClientConfig) (*EthereumChainClient, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindConfigInvalid, "failed to dial RPC endpoint", err)
	}

	multicallABI, err := abi.JSON(strings.NewReader(multicall3ABIJSON))
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid multicall3 ABI", err)
	}
	stateABI, err := abi.JSON(strings.NewReader(stateViewABIJSON))
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid state view ABI", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(v2PairABIJSON))
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid v2 pair ABI", err)
	}
	factoryABI, err := abi.JSON(strings.NewReader(aerodromeFactoryABIJSON))
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid aerodrome factory ABI", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &EthereumChainClient{
		rpc:              client,
		stateView:        common.HexToAddress(cfg.StateViewAddr),
		multicall3:       common.HexToAddress(cfg.Multicall3Addr),
		weth:             common.HexToAddress(cfg.WethAddr),
		weth0:            cfg.WethIsToken0,
		v4PoolID:         cfg.V4PoolID,
		v2Pair:           common.HexToAddress(cfg.V2PairAddr),
		v2FallbackFeeBps: cfg.V2FallbackFeeBps,
		aerodromeFactory: common.HexToAddress(cfg.AerodromeFactoryAddr),
		tickSpacing:      cfg.TickSpacing,
		feePips:          cfg.FeePips,
		multicallABI:     multicallABI,
		stateABI:         stateABI,
		pairABI:          pairABI,
		factoryABI:       factoryABI,
		log:              log,
	}, nil
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type result3 struct {
	Success    bool
	ReturnData []byte
}

func (c *EthereumChainClient) aggregate(ctx context.Context, calls []call3) ([]result3, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	packed, err := c.multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode multicall", err)
	}

	out, err := c.rpc.CallContract(ctx, ethereum.CallMsg{
		To:   &c.multicall3,
		Data: packed,
	}, nil)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "multicall aggregate3 call failed", err)
	}

	unpacked, err := c.multicallABI.Unpack("aggregate3", out)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode multicall result", err)
	}
	if len(unpacked) != 1 {
		return nil, apierrors.New(apierrors.KindRpcFailure, "unexpected multicall return shape")
	}

	raw, ok := unpacked[0].([]struct {
		Success    bool
		ReturnData []byte
	})
	if !ok {
		return nil, apierrors.New(apierrors.KindRpcFailure, "unexpected multicall result type")
	}
	results := make([]result3, len(raw))
	for i, r := range raw {
		results[i] = result3{Success: r.Success, ReturnData: r.ReturnData}
	}
	return results, nil
}

// LoadV4Snapshot batches slot0 and liquidity into one multicall round trip,
// then reads getTickLiquidity for every spaced tick in the window around the
// current tick in a second one; the tick bitmap itself is not read.
func (c *EthereumChainClient) LoadV4Snapshot(ctx context.Context, poolAddress string) (*venue.V4Snapshot, error) {
	slot0Call, err := c.stateABI.Pack("getSlot0", c.v4PoolID)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode getSlot0", err)
	}
	liquidityCall, err := c.stateABI.Pack("getLiquidity", c.v4PoolID)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode getLiquidity", err)
	}

	calls := []call3{
		{Target: c.stateView, AllowFailure: false, CallData: slot0Call},
		{Target: c.stateView, AllowFailure: false, CallData: liquidityCall},
	}
	results, err := c.aggregate(ctx, calls)
	if err != nil {
		return nil, err
	}
	if len(results) != 2 || !results[0].Success || !results[1].Success {
		return nil, apierrors.New(apierrors.KindRpcFailure, "v4 snapshot multicall reported a sub-call failure")
	}

	slot0Out, err := c.stateABI.Unpack("getSlot0", results[0].ReturnData)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode getSlot0", err)
	}
	liquidityOut, err := c.stateABI.Unpack("getLiquidity", results[1].ReturnData)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode getLiquidity", err)
	}

	sqrtPriceX96 := slot0Out[0].(*big.Int)
	tick := int32(slot0Out[1].(*big.Int).Int64())
	liquidity := liquidityOut[0].(*big.Int)

	ticks, err := c.loadTickWindow(ctx, tick)
	if err != nil {
		return nil, err
	}

	return &venue.V4Snapshot{
		Token0:       venue.Token{Address: poolAddress + "-token0", Decimals: 18},
		Token1:       venue.Token{Address: poolAddress + "-token1", Decimals: 6},
		Token0IsWeth: c.weth0,
		FeePips:      c.feePips,
		TickSpacing:  c.tickSpacing,
		SqrtPriceX96: sqrtPriceX96,
		CurrentTick:  tick,
		Liquidity:    liquidity,
		Ticks:        ticks,
	}, nil
}

func (c *EthereumChainClient) loadTickWindow(ctx context.Context, currentTick int32) ([]venue.TickInfo, error) {
	lo := currentTick - tickWindowSpacings*c.tickSpacing
	hi := currentTick + tickWindowSpacings*c.tickSpacing

	var calls []call3
	var ticksQueried []int32
	for t := lo; t <= hi; t += c.tickSpacing {
		packed, err := c.stateABI.Pack("getTickLiquidity", c.v4PoolID, big.NewInt(int64(t)))
		if err != nil {
			return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode getTickLiquidity", err)
		}
		calls = append(calls, call3{Target: c.stateView, AllowFailure: true, CallData: packed})
		ticksQueried = append(ticksQueried, t)
	}

	results, err := c.aggregate(ctx, calls)
	if err != nil {
		return nil, err
	}

	var ticks []venue.TickInfo
	for i, r := range results {
		if !r.Success {
			continue
		}
		out, err := c.stateABI.Unpack("getTickLiquidity", r.ReturnData)
		if err != nil {
			continue
		}
		liquidityGross := out[0].(*big.Int)
		if liquidityGross.Sign() == 0 {
			continue
		}
		liquidityNet := out[1].(*big.Int)
		ticks = append(ticks, venue.TickInfo{Tick: ticksQueried[i], LiquidityNet: liquidityNet})
	}
	return ticks, nil
}

// LoadV2Snapshot batches token0/token1/getReserves and a factory-registered
// fee lookup into one multicall round trip. The factory's getFee sub-call is
// AllowFailure: true; if it reverts or decodes to a non-positive fee,
// LoadV2Snapshot falls back to the configured default (or 30 bps) and logs a
// warning, per spec.md §4.4.
func (c *EthereumChainClient) LoadV2Snapshot(ctx context.Context, pairAddress string) (*venue.V2Snapshot, error) {
	pair := common.HexToAddress(pairAddress)

	token0Call, err := c.pairABI.Pack("token0")
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode token0", err)
	}
	token1Call, err := c.pairABI.Pack("token1")
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode token1", err)
	}
	reservesCall, err := c.pairABI.Pack("getReserves")
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode getReserves", err)
	}
	// WETH/USDC is a volatile pair under Aerodrome's pool taxonomy, never the
	// stable (curve-invariant) variant, so the factory fee lookup always
	// passes stable=false.
	factoryFeeCall, err := c.factoryABI.Pack("getFee", pair, false)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to encode getFee", err)
	}

	calls := []call3{
		{Target: pair, AllowFailure: false, CallData: token0Call},
		{Target: pair, AllowFailure: false, CallData: token1Call},
		{Target: pair, AllowFailure: false, CallData: reservesCall},
		{Target: c.aerodromeFactory, AllowFailure: true, CallData: factoryFeeCall},
	}
	results, err := c.aggregate(ctx, calls)
	if err != nil {
		return nil, err
	}
	if len(results) != 4 || !results[0].Success || !results[1].Success || !results[2].Success {
		return nil, apierrors.New(apierrors.KindRpcFailure, "v2 snapshot multicall reported a sub-call failure")
	}

	token0Out, err := c.pairABI.Unpack("token0", results[0].ReturnData)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode token0", err)
	}
	reservesOut, err := c.pairABI.Unpack("getReserves", results[2].ReturnData)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode getReserves", err)
	}

	token0Addr := token0Out[0].(common.Address)
	token0IsWeth := token0Addr == c.weth

	feeBps, err := c.factoryFeeBps(results[3])
	if err != nil {
		c.log.WithError(err).Warn("aerodrome factory fee slot unavailable, falling back to configured fee")
		feeBps = c.v2FallbackFeeBps
		if feeBps == 0 {
			feeBps = 30
		}
	}

	return &venue.V2Snapshot{
		Token0:       venue.Token{Address: pairAddress + "-token0", Decimals: 18},
		Token1:       venue.Token{Address: pairAddress + "-token1", Decimals: 6},
		Token0IsWeth: token0IsWeth,
		Reserve0:     reservesOut[0].(*big.Int),
		Reserve1:     reservesOut[1].(*big.Int),
		FeeBps:       feeBps,
	}, nil
}

// factoryFeeBps decodes a PoolFactory.getFee sub-call result into basis
// points. It returns an error whenever the call itself failed or came back
// malformed, so LoadV2Snapshot can fall back to the configured default
// exactly when the factory read is unavailable, per spec.md §4.4.
func (c *EthereumChainClient) factoryFeeBps(r result3) (uint32, error) {
	if !r.Success {
		return 0, apierrors.New(apierrors.KindRpcFailure, "aerodrome factory getFee call reverted")
	}
	out, err := c.factoryABI.Unpack("getFee", r.ReturnData)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindRpcFailure, "failed to decode getFee", err)
	}
	fee, ok := out[0].(*big.Int)
	if !ok || fee.Sign() <= 0 {
		return 0, apierrors.New(apierrors.KindRpcFailure, "aerodrome factory returned a non-positive fee")
	}
	return uint32(fee.Uint64()), nil
}

// GasPriceWei reads the chain's current suggested gas price.
func (c *EthereumChainClient) GasPriceWei(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	price, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindRpcFailure, "failed to read gas price", err)
	}
	return price, nil
}

// Package configs loads the environment-variable configuration enumerated
// in spec.md §6, following the teacher's cmd/main.go style of reading
// required env vars up front and panicking (here: returning ConfigInvalid)
// on anything missing, plus an optional .env load via godotenv for local
// development exactly as the teacher's own test setup does.
package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"

	"github.com/arbedge/quoteengine/internal/apierrors"
)

// Config is every recognized environment option from spec.md §6.
type Config struct {
	EthereumRPCURL   string
	BaseRPCURL       string
	UniswapV4StateView string
	Multicall3Addr   string

	WethAddrEth   string
	UsdcAddrEth   string
	WethAddrBase  string
	UsdcAddrBase  string
	AerodromeFactory string
	AerodromePool    string

	V4FeePips     uint32
	V4TickSpacing int32

	GasUnitsV4 uint64
	GasUnitsV2 uint64

	RequestDeadline time.Duration

	ServiceBindAddr string
}

// Load reads configuration from the process environment, first optionally
// loading a local .env file (missing file is not an error, matching
// godotenv.Load's own semantics and the teacher's use of it in tests).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	required := map[string]*string{
		"ETHEREUM_RPC_URL":      &cfg.EthereumRPCURL,
		"BASE_RPC_URL":          &cfg.BaseRPCURL,
		"UNISWAP_V4_STATE_VIEW": &cfg.UniswapV4StateView,
		"WETH_ADDR_ETH":         &cfg.WethAddrEth,
		"USDC_ADDR_ETH":         &cfg.UsdcAddrEth,
		"WETH_ADDR_BASE":        &cfg.WethAddrBase,
		"USDC_ADDR_BASE":        &cfg.UsdcAddrBase,
		"AERODROME_FACTORY":     &cfg.AerodromeFactory,
		"AERODROME_POOL":        &cfg.AerodromePool,
	}
	for name, dest := range required {
		v := os.Getenv(name)
		if v == "" {
			return nil, apierrors.New(apierrors.KindConfigInvalid, "missing required environment variable "+name)
		}
		*dest = v
	}

	cfg.Multicall3Addr = envOrDefault("MULTICALL3_ADDR", "0xcA11bde05977b3631167028862bE2a173976CA11")

	var err error
	cfg.V4FeePips, err = envUint32("V4_FEE_PIPS", 3000)
	if err != nil {
		return nil, err
	}
	cfg.V4TickSpacing, err = envInt32("V4_TICK_SPACING", 60)
	if err != nil {
		return nil, err
	}
	cfg.GasUnitsV4, err = envUint64("GAS_UNITS_V4", 180000)
	if err != nil {
		return nil, err
	}
	cfg.GasUnitsV2, err = envUint64("GAS_UNITS_V2", 160000)
	if err != nil {
		return nil, err
	}

	deadlineMs, err := envUint64("REQUEST_DEADLINE_MS", 10000)
	if err != nil {
		return nil, err
	}
	cfg.RequestDeadline = time.Duration(deadlineMs) * time.Millisecond

	cfg.ServiceBindAddr = envOrDefault("SERVICE_BIND_ADDR", "0.0.0.0:8000")

	return cfg, nil
}

// V4PoolID derives the pool's identifying hash the way a v4 StateView
// contract addresses pools: a keccak256 of its immutable configuration. The
// exact preimage layout is a deployment detail out of scope for this
// service; what matters here is that the same config always yields the same
// id, since this engine only ever reads one configured pool.
func (c *Config) V4PoolID() [32]byte {
	preimage := c.WethAddrEth + c.UsdcAddrEth + strconv.FormatUint(uint64(c.V4FeePips), 10) + strconv.FormatInt(int64(c.V4TickSpacing), 10)
	return crypto.Keccak256Hash([]byte(preimage))
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envUint32(name string, def uint32) (uint32, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid value for "+name, err)
	}
	return uint32(parsed), nil
}

func envInt32(name string, def int32) (int32, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid value for "+name, err)
	}
	return int32(parsed), nil
}

func envUint64(name string, def uint64) (uint64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindConfigInvalid, "invalid value for "+name, err)
	}
	return parsed, nil
}

package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/quoteengine/internal/apierrors"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	vars := map[string]string{
		"ETHEREUM_RPC_URL":      "https://eth.example/rpc",
		"BASE_RPC_URL":          "https://base.example/rpc",
		"UNISWAP_V4_STATE_VIEW": "0x1111111111111111111111111111111111111111",
		"WETH_ADDR_ETH":         "0x2222222222222222222222222222222222222222",
		"USDC_ADDR_ETH":         "0x3333333333333333333333333333333333333333",
		"WETH_ADDR_BASE":        "0x4444444444444444444444444444444444444444",
		"USDC_ADDR_BASE":        "0x5555555555555555555555555555555555555555",
		"AERODROME_FACTORY":     "0x6666666666666666666666666666666666666666",
		"AERODROME_POOL":        "0x7777777777777777777777777777777777777777",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
	_ = os.Unsetenv("V4_FEE_PIPS")
	_ = os.Unsetenv("GAS_UNITS_V4")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(3000), cfg.V4FeePips)
	assert.Equal(t, int32(60), cfg.V4TickSpacing)
	assert.Equal(t, uint64(180000), cfg.GasUnitsV4)
	assert.Equal(t, uint64(160000), cfg.GasUnitsV2)
	assert.Equal(t, "0.0.0.0:8000", cfg.ServiceBindAddr)
}

func TestLoad_MissingRequiredVarFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ETHEREUM_RPC_URL", "")

	_, err := Load()
	require.Error(t, err)
	e, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindConfigInvalid, e.Kind)
}

func TestLoad_InvalidOverrideFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("V4_FEE_PIPS", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}

func TestV4PoolID_IsDeterministic(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	a := cfg.V4PoolID()
	b := cfg.V4PoolID()
	assert.Equal(t, a, b)
}

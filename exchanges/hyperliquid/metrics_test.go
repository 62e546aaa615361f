package hyperliquid

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, RegisterMetrics(reg), &already)
}

func TestSignaturesCounted(t *testing.T) {
	t.Parallel()
	counter := signaturesTotal.WithLabelValues(SchemeUserSigned.String(), "ok")
	before := testutil.ToFloat64(counter)
	p, err := Prepare(&ApproveBuilderFee{Builder: MustParseAddress(testVault), MaxFeeRate: "0.001%"}, Testnet, nil, nil, testClock)
	require.NoError(t, err)
	_, err = p.Sign(context.Background(), mustLocalSigner(t, testPrivateKey))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, testutil.ToFloat64(counter), before+1)
}

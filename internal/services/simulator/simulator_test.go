package simulator

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/clients"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/builder"
	"github.com/vadiminshakov/alpacamint/internal/services/sandbox"
	"github.com/vadiminshakov/alpacamint/internal/services/sources"
)

type fakeExecutor struct {
	result sandbox.Result
	calls  int
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, _ entity.Secrets, _ []string) sandbox.Result {
	f.calls++
	return f.result
}

func TestSimulate_DecodesResponse(t *testing.T) {
	word, err := domain.EncodeUint256(big.NewInt(42))
	require.NoError(t, err)
	exec := &fakeExecutor{result: sandbox.Result{ResponseBytesHexstring: hexutil.Encode(word)}}

	report, err := New(exec, zap.NewNop()).Simulate(context.Background(), builder.AlpacaMintRequest(nil))
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Equal(t, "42", report.Decoded)
	assert.Equal(t, sources.AlpacaBalanceSource, report.Source)
	assert.Equal(t, domain.ReturnTypeUint256, report.ReturnType)
}

func TestSimulate_ScriptError(t *testing.T) {
	exec := &fakeExecutor{result: sandbox.Result{ErrorString: "alpacaKey is required: missing credential"}}

	report, err := New(exec, nil).Simulate(context.Background(), builder.AlpacaMintRequest(nil))
	require.NoError(t, err)

	assert.True(t, report.Failed())
	assert.Empty(t, report.Decoded)
	assert.Contains(t, report.ErrorString, "alpacaKey")
}

func TestSimulate_InvalidConfig(t *testing.T) {
	exec := &fakeExecutor{}
	cfg := builder.AlpacaMintRequest(nil)
	cfg.CodeLocation = entity.LocationRemote

	_, err := New(exec, nil).Simulate(context.Background(), cfg)
	assert.Error(t, err)
	assert.Zero(t, exec.calls)
}

func TestSimulate_UndecodableResponse(t *testing.T) {
	exec := &fakeExecutor{result: sandbox.Result{ResponseBytesHexstring: "0x01"}}

	_, err := New(exec, nil).Simulate(context.Background(), builder.AlpacaMintRequest(nil))
	assert.Error(t, err)
}

func TestSimulate_AlpacaEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"portfolio_value":"100000.5"}`))
	}))
	defer srv.Close()

	reg := sandbox.NewRegistry()
	require.NoError(t, sources.Register(reg, srv.URL))
	sb := sandbox.New(reg, clients.NewHTTPClient(), zap.NewNop())

	report, err := New(sb, zap.NewNop()).Simulate(context.Background(),
		builder.AlpacaMintRequest(entity.NewAlpacaSecrets("key", "secret")))
	require.NoError(t, err)

	require.False(t, report.Failed(), report.ErrorString)
	assert.Equal(t, "100000500000000000000000", report.Decoded)
	assert.NotEmpty(t, report.CapturedLogs)
}

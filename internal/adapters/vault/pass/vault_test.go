package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passCall struct {
	input string
	args  []string
}

func newRecordingVault(stdout, stderr string, err error) (*Vault, *[]passCall) {
	var calls []passCall
	vault := &Vault{run: func(_ context.Context, input string, args ...string) (string, string, error) {
		calls = append(calls, passCall{input: input, args: args})
		return stdout, stderr, err
	}}
	return vault, &calls
}

func TestVaultPutInsertsMultilineEntry(t *testing.T) {
	t.Parallel()

	vault, calls := newRecordingVault("", "", nil)

	require.NoError(t, vault.Put(context.Background(), "moonbix://alice/query", "query_id=1"))
	assert.Equal(t, []passCall{{input: "query_id=1\n", args: []string{"insert", "-m", "-f", "moonbix/alice/query"}}}, *calls)
}

func TestVaultGetTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	vault, calls := newRecordingVault("query_id=1\r\n", "", nil)

	got, err := vault.Get(context.Background(), "moonbix://alice/query")
	require.NoError(t, err)
	assert.Equal(t, "query_id=1", got)
	assert.Equal(t, []string{"show", "moonbix/alice/query"}, (*calls)[0].args)
}

func TestVaultErrorIncludesStderr(t *testing.T) {
	t.Parallel()

	vault, _ := newRecordingVault("", "Error: moonbix/alice/query is not in the password store.", errors.New("exit status 1"))

	_, err := vault.Get(context.Background(), "moonbix://alice/query")
	require.Error(t, err)
	assert.ErrorContains(t, err, `pass get "moonbix/alice/query"`)
	assert.ErrorContains(t, err, "is not in the password store")
}

func TestVaultDelete(t *testing.T) {
	t.Parallel()

	vault, calls := newRecordingVault("", "", nil)

	require.NoError(t, vault.Delete(context.Background(), "moonbix://alice/query"))
	assert.Equal(t, []string{"rm", "-f", "moonbix/alice/query"}, (*calls)[0].args)
}

func TestVaultCanceledContextSkipsCommand(t *testing.T) {
	t.Parallel()

	vault, calls := newRecordingVault("", "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, vault.Put(ctx, "moonbix://alice/query", "q"), context.Canceled)
	assert.Empty(t, *calls)
}

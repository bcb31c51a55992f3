package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const key = "moonbix://alice/query"

func TestNewVaultRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewVault(nil, mocks.NewMockCredentialVault(t))
	require.ErrorIs(t, err, errNilPrimaryVault)

	_, err = NewVault(mocks.NewMockCredentialVault(t), nil)
	require.ErrorIs(t, err, errNilFallbackVault)
}

func TestVaultGetPrefersPrimary(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockCredentialVault(t)
	fallback := mocks.NewMockCredentialVault(t)
	primary.On("Get", mock.Anything, key).Return("from-pass", nil).Once()

	vault, err := NewVault(primary, fallback)
	require.NoError(t, err)

	got, err := vault.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", got)
}

func TestVaultGetFallsBack(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockCredentialVault(t)
	fallback := mocks.NewMockCredentialVault(t)
	primary.On("Get", mock.Anything, key).Return("", errors.New("pass command unavailable")).Once()
	fallback.On("Get", mock.Anything, key).Return("from-file", nil).Once()

	vault, err := NewVault(primary, fallback)
	require.NoError(t, err)

	got, err := vault.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestVaultPutReportsBothFailures(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockCredentialVault(t)
	fallback := mocks.NewMockCredentialVault(t)
	primaryErr := errors.New("gpg failed")
	fallbackErr := errors.New("read-only filesystem")
	primary.On("Put", mock.Anything, key, "q").Return(primaryErr).Once()
	fallback.On("Put", mock.Anything, key, "q").Return(fallbackErr).Once()

	vault, err := NewVault(primary, fallback)
	require.NoError(t, err)

	err = vault.Put(context.Background(), key, "q")
	require.ErrorIs(t, err, primaryErr)
	require.ErrorIs(t, err, fallbackErr)
}

func TestVaultDoesNotFallBackOnCancellation(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockCredentialVault(t)
	fallback := mocks.NewMockCredentialVault(t)
	primary.On("Delete", mock.Anything, key).Return(context.Canceled).Once()

	vault, err := NewVault(primary, fallback)
	require.NoError(t, err)

	require.ErrorIs(t, vault.Delete(context.Background(), key), context.Canceled)
	fallback.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVaultGetMissingEverywhere(t *testing.T) {
	t.Parallel()

	primary := mocks.NewMockCredentialVault(t)
	fallback := mocks.NewMockCredentialVault(t)
	primary.On("Get", mock.Anything, key).Return("", errors.New("not in the password store")).Once()
	fallback.On("Get", mock.Anything, key).Return("", domain.ErrCredentialNotFound).Once()

	vault, err := NewVault(primary, fallback)
	require.NoError(t, err)

	_, err = vault.Get(context.Background(), key)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

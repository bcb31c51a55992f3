package mocks

import (
	"context"

	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockCredentialVault struct {
	mock.Mock
}

var _ ports.CredentialVault = (*MockCredentialVault)(nil)

func NewMockCredentialVault(t testingT) *MockCredentialVault {
	m := &MockCredentialVault{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialVault) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialVault) Put(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCredentialVault) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

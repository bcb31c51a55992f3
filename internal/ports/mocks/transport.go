package mocks

import (
	"context"

	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockTransport struct {
	mock.Mock
}

var _ ports.Transport = (*MockTransport)(nil)

func NewMockTransport(t testingT) *MockTransport {
	m := &MockTransport{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransport) Send(ctx context.Context, endpoint ports.Endpoint, token string, body any) (ports.Envelope, error) {
	args := m.Called(ctx, endpoint, token, body)

	envelope, _ := args.Get(0).(ports.Envelope)
	return envelope, args.Error(1)
}

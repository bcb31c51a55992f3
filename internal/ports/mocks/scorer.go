package mocks

import (
	"context"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

type MockGameScorer struct {
	mock.Mock
}

var _ ports.GameScorer = (*MockGameScorer)(nil)

func NewMockGameScorer(t testingT) *MockGameScorer {
	m := &MockGameScorer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGameScorer) Score(ctx context.Context, start domain.GameStart) (domain.GameResult, error) {
	args := m.Called(ctx, start)

	result, _ := args.Get(0).(domain.GameResult)
	return result, args.Error(1)
}

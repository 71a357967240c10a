package testutil

import (
	"context"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/client"
	"github.com/stretchr/testify/mock"
)

// MockedClient returns a new mock for client.Client
type MockedClient struct {
	mock.Mock
}

var _ client.Client = &MockedClient{}

// Submit submits a tx, mocked
func (m *MockedClient) Submit(ctx context.Context, params sb.TxParams) (client.PendingTx, error) {
	args := m.Called(ctx, params)
	pending, _ := args.Get(0).(client.PendingTx)
	return pending, args.Error(1)
}

// FetchAccount fetches account state, mocked
func (m *MockedClient) FetchAccount(ctx context.Context, address sb.Address) (*client.Account, error) {
	args := m.Called(ctx, address)
	account, _ := args.Get(0).(*client.Account)
	return account, args.Error(1)
}

// FetchLiquidBalance fetches the token balance, mocked
func (m *MockedClient) FetchLiquidBalance(ctx context.Context, address sb.Address) (sb.AmountBlockchain, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(sb.AmountBlockchain), args.Error(1)
}

// Ping checks the connection, mocked
func (m *MockedClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

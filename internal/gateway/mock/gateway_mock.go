package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/gateway"
)

// DataGatewayMock mocks the gateway.DataGateway interface
type DataGatewayMock struct {
	mock.Mock
}

// GetList mocks the GetList method
func (m *DataGatewayMock) GetList(ctx context.Context, resource string, params gateway.ListParams) (*gateway.ListResult, error) {
	args := m.Called(ctx, resource, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ListResult), args.Error(1)
}

// GetOne mocks the GetOne method
func (m *DataGatewayMock) GetOne(ctx context.Context, resource string, id string) (gateway.Record, error) {
	args := m.Called(ctx, resource, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.Record), args.Error(1)
}

// Create mocks the Create method
func (m *DataGatewayMock) Create(ctx context.Context, resource string, data gateway.Record) (gateway.Record, error) {
	args := m.Called(ctx, resource, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.Record), args.Error(1)
}

// Update mocks the Update method
func (m *DataGatewayMock) Update(ctx context.Context, resource string, id string, data gateway.Record) (gateway.Record, error) {
	args := m.Called(ctx, resource, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.Record), args.Error(1)
}

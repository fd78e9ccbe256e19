package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	store "github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
	uuid "github.com/google/uuid"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockStore is a mock of Store interface.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
	isgomock struct{}
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder struct {
	mock *MockStore
}

// NewMockStore creates a new mock instance.
func NewMockStore(ctrl *gomock.Controller) *MockStore {
	mock := &MockStore{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStore) EXPECT() *MockStoreMockRecorder {
	return m.recorder
}

// AddItemStats mocks base method.
func (m *MockStore) AddItemStats(ctx context.Context, item string, delta store.StatsDelta) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddItemStats", ctx, item, delta)
	ret0, _ := ret[0].(error)
	return ret0
}

// AddItemStats indicates an expected call of AddItemStats.
func (mr *MockStoreMockRecorder) AddItemStats(ctx, item, delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddItemStats", reflect.TypeOf((*MockStore)(nil).AddItemStats), ctx, item, delta)
}

// AppendPriceHistory mocks base method.
func (m *MockStore) AppendPriceHistory(ctx context.Context, snapshots []store.PriceSnapshot) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AppendPriceHistory", ctx, snapshots)
	ret0, _ := ret[0].(error)
	return ret0
}

// AppendPriceHistory indicates an expected call of AppendPriceHistory.
func (mr *MockStoreMockRecorder) AppendPriceHistory(ctx, snapshots any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AppendPriceHistory", reflect.TypeOf((*MockStore)(nil).AppendPriceHistory), ctx, snapshots)
}

// Balance mocks base method.
func (m *MockStore) Balance(ctx context.Context, kind store.Kind, id uuid.UUID) (decimal.Decimal, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Balance", ctx, kind, id)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// Balance indicates an expected call of Balance.
func (mr *MockStoreMockRecorder) Balance(ctx, kind, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Balance", reflect.TypeOf((*MockStore)(nil).Balance), ctx, kind, id)
}

// Close mocks base method.
func (m *MockStore) Close(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// Close indicates an expected call of Close.
func (mr *MockStoreMockRecorder) Close(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockStore)(nil).Close), ctx)
}

// ItemStats mocks base method.
func (m *MockStore) ItemStats(ctx context.Context, item string) (store.Stats, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ItemStats", ctx, item)
	ret0, _ := ret[0].(store.Stats)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// ItemStats indicates an expected call of ItemStats.
func (mr *MockStoreMockRecorder) ItemStats(ctx, item any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ItemStats", reflect.TypeOf((*MockStore)(nil).ItemStats), ctx, item)
}

// LoadBalances mocks base method.
func (m *MockStore) LoadBalances(ctx context.Context, kind store.Kind) (map[uuid.UUID]decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadBalances", ctx, kind)
	ret0, _ := ret[0].(map[uuid.UUID]decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LoadBalances indicates an expected call of LoadBalances.
func (mr *MockStoreMockRecorder) LoadBalances(ctx, kind any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadBalances", reflect.TypeOf((*MockStore)(nil).LoadBalances), ctx, kind)
}

// LoadItemStats mocks base method.
func (m *MockStore) LoadItemStats(ctx context.Context) (map[string]store.Stats, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadItemStats", ctx)
	ret0, _ := ret[0].(map[string]store.Stats)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LoadItemStats indicates an expected call of LoadItemStats.
func (mr *MockStoreMockRecorder) LoadItemStats(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadItemStats", reflect.TypeOf((*MockStore)(nil).LoadItemStats), ctx)
}

// PriceHistory mocks base method.
func (m *MockStore) PriceHistory(ctx context.Context, item string, since time.Time) ([]store.PriceSnapshot, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PriceHistory", ctx, item, since)
	ret0, _ := ret[0].([]store.PriceSnapshot)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PriceHistory indicates an expected call of PriceHistory.
func (mr *MockStoreMockRecorder) PriceHistory(ctx, item, since any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PriceHistory", reflect.TypeOf((*MockStore)(nil).PriceHistory), ctx, item, since)
}

// SetBalance mocks base method.
func (m *MockStore) SetBalance(ctx context.Context, kind store.Kind, id uuid.UUID, amount decimal.Decimal) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetBalance", ctx, kind, id, amount)
	ret0, _ := ret[0].(error)
	return ret0
}

// SetBalance indicates an expected call of SetBalance.
func (mr *MockStoreMockRecorder) SetBalance(ctx, kind, id, amount any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetBalance", reflect.TypeOf((*MockStore)(nil).SetBalance), ctx, kind, id, amount)
}

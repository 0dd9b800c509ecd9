// Package mock_window holds gomock mocks of the window interfaces, laid out
// the way mockgen writes them. Running go generate in internal/window
// replaces this file with mockgen's output:
//
//	mockgen -source=window.go -destination=mocks/mock_window.go -package=mock_window
package mock_window

import (
	context "context"
	reflect "reflect"

	gpu "github.com/zsiec/reel/internal/gpu"
	window "github.com/zsiec/reel/internal/window"
	gomock "go.uber.org/mock/gomock"
)

// MockNotifier is a mock of Notifier interface.
type MockNotifier struct {
	ctrl     *gomock.Controller
	recorder *MockNotifierMockRecorder
	isgomock struct{}
}

// MockNotifierMockRecorder is the mock recorder for MockNotifier.
type MockNotifierMockRecorder struct {
	mock *MockNotifier
}

// NewMockNotifier creates a new mock instance.
func NewMockNotifier(ctrl *gomock.Controller) *MockNotifier {
	mock := &MockNotifier{ctrl: ctrl}
	mock.recorder = &MockNotifierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockNotifier) EXPECT() *MockNotifierMockRecorder {
	return m.recorder
}

// RequestRedraw mocks base method.
func (m *MockNotifier) RequestRedraw() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "RequestRedraw")
}

// RequestRedraw indicates an expected call of RequestRedraw.
func (mr *MockNotifierMockRecorder) RequestRedraw() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RequestRedraw", reflect.TypeOf((*MockNotifier)(nil).RequestRedraw))
}

// MockHandler is a mock of Handler interface.
type MockHandler struct {
	ctrl     *gomock.Controller
	recorder *MockHandlerMockRecorder
	isgomock struct{}
}

// MockHandlerMockRecorder is the mock recorder for MockHandler.
type MockHandlerMockRecorder struct {
	mock *MockHandler
}

// NewMockHandler creates a new mock instance.
func NewMockHandler(ctrl *gomock.Controller) *MockHandler {
	mock := &MockHandler{ctrl: ctrl}
	mock.recorder = &MockHandlerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHandler) EXPECT() *MockHandlerMockRecorder {
	return m.recorder
}

// Closed mocks base method.
func (m *MockHandler) Closed() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Closed")
}

// Closed indicates an expected call of Closed.
func (mr *MockHandlerMockRecorder) Closed() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Closed", reflect.TypeOf((*MockHandler)(nil).Closed))
}

// Redraw mocks base method.
func (m *MockHandler) Redraw() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Redraw")
	ret0, _ := ret[0].(error)
	return ret0
}

// Redraw indicates an expected call of Redraw.
func (mr *MockHandlerMockRecorder) Redraw() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Redraw", reflect.TypeOf((*MockHandler)(nil).Redraw))
}

// Resized mocks base method.
func (m *MockHandler) Resized(width, height int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Resized", width, height)
	ret0, _ := ret[0].(error)
	return ret0
}

// Resized indicates an expected call of Resized.
func (mr *MockHandlerMockRecorder) Resized(width, height any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Resized", reflect.TypeOf((*MockHandler)(nil).Resized), width, height)
}

// MockWindow is a mock of Window interface.
type MockWindow struct {
	ctrl     *gomock.Controller
	recorder *MockWindowMockRecorder
	isgomock struct{}
}

// MockWindowMockRecorder is the mock recorder for MockWindow.
type MockWindowMockRecorder struct {
	mock *MockWindow
}

// NewMockWindow creates a new mock instance.
func NewMockWindow(ctrl *gomock.Controller) *MockWindow {
	mock := &MockWindow{ctrl: ctrl}
	mock.recorder = &MockWindowMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockWindow) EXPECT() *MockWindowMockRecorder {
	return m.recorder
}

// Instance mocks base method.
func (m *MockWindow) Instance() gpu.Instance {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Instance")
	ret0, _ := ret[0].(gpu.Instance)
	return ret0
}

// Instance indicates an expected call of Instance.
func (mr *MockWindowMockRecorder) Instance() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Instance", reflect.TypeOf((*MockWindow)(nil).Instance))
}

// Notifier mocks base method.
func (m *MockWindow) Notifier() window.Notifier {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Notifier")
	ret0, _ := ret[0].(window.Notifier)
	return ret0
}

// Notifier indicates an expected call of Notifier.
func (mr *MockWindowMockRecorder) Notifier() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Notifier", reflect.TypeOf((*MockWindow)(nil).Notifier))
}

// Run mocks base method.
func (m *MockWindow) Run(ctx context.Context, h window.Handler) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Run", ctx, h)
	ret0, _ := ret[0].(error)
	return ret0
}

// Run indicates an expected call of Run.
func (mr *MockWindowMockRecorder) Run(ctx, h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Run", reflect.TypeOf((*MockWindow)(nil).Run), ctx, h)
}

// Surface mocks base method.
func (m *MockWindow) Surface() gpu.Surface {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Surface")
	ret0, _ := ret[0].(gpu.Surface)
	return ret0
}

// Surface indicates an expected call of Surface.
func (mr *MockWindowMockRecorder) Surface() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Surface", reflect.TypeOf((*MockWindow)(nil).Surface))
}

// Hand-written in the shape of mockgen's output for the Recorder interface
// of github.com/slon/upgrademutex; it is not produced by a generator.

// Package upgrademutexmock holds a gomock double for upgrademutex.Recorder,
// used by tests that need to assert exactly which acquire/release hooks
// fired without pulling in a real metrics backend.
package upgrademutexmock

import (
	reflect "reflect"
	time "time"

	gomock "github.com/golang/mock/gomock"

	upgrademutex "github.com/slon/upgrademutex"
)

// MockRecorder is a mock of the upgrademutex.Recorder interface.
type MockRecorder struct {
	ctrl     *gomock.Controller
	recorder *MockRecorderMockRecorder
}

// MockRecorderMockRecorder is the mock recorder for MockRecorder.
type MockRecorderMockRecorder struct {
	mock *MockRecorder
}

// NewMockRecorder creates a new mock instance.
func NewMockRecorder(ctrl *gomock.Controller) *MockRecorder {
	mock := &MockRecorder{ctrl: ctrl}
	mock.recorder = &MockRecorderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRecorder) EXPECT() *MockRecorderMockRecorder {
	return m.recorder
}

// ObserveAcquire mocks base method.
func (m *MockRecorder) ObserveAcquire(mode upgrademutex.Mode, waited time.Duration) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObserveAcquire", mode, waited)
}

// ObserveAcquire indicates an expected call of ObserveAcquire.
func (mr *MockRecorderMockRecorder) ObserveAcquire(mode, waited interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObserveAcquire", reflect.TypeOf((*MockRecorder)(nil).ObserveAcquire), mode, waited)
}

// ObserveRelease mocks base method.
func (m *MockRecorder) ObserveRelease(mode upgrademutex.Mode) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObserveRelease", mode)
}

// ObserveRelease indicates an expected call of ObserveRelease.
func (mr *MockRecorderMockRecorder) ObserveRelease(mode interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObserveRelease", reflect.TypeOf((*MockRecorder)(nil).ObserveRelease), mode)
}

package mock

import (
	context "context"
	reflect "reflect"

	services "github.com/disgoorg/entry-bot/entrybot/services"
	snowflake "github.com/disgoorg/snowflake/v2"
	gomock "go.uber.org/mock/gomock"
)

// MockMemberDirectory is a mock of MemberDirectory interface.
type MockMemberDirectory struct {
	ctrl     *gomock.Controller
	recorder *MockMemberDirectoryMockRecorder
	isgomock struct{}
}

// MockMemberDirectoryMockRecorder is the mock recorder for MockMemberDirectory.
type MockMemberDirectoryMockRecorder struct {
	mock *MockMemberDirectory
}

// NewMockMemberDirectory creates a new mock instance.
func NewMockMemberDirectory(ctrl *gomock.Controller) *MockMemberDirectory {
	mock := &MockMemberDirectory{ctrl: ctrl}
	mock.recorder = &MockMemberDirectoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMemberDirectory) EXPECT() *MockMemberDirectoryMockRecorder {
	return m.recorder
}

// Member mocks base method.
func (m *MockMemberDirectory) Member(ctx context.Context, guildID, userID snowflake.ID) (*services.GuildMember, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Member", ctx, guildID, userID)
	ret0, _ := ret[0].(*services.GuildMember)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Member indicates an expected call of Member.
func (mr *MockMemberDirectoryMockRecorder) Member(ctx, guildID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Member", reflect.TypeOf((*MockMemberDirectory)(nil).Member), ctx, guildID, userID)
}

// MeetsMinimumRole mocks base method.
func (m *MockMemberDirectory) MeetsMinimumRole(ctx context.Context, guildID snowflake.ID, member *services.GuildMember, minRoleID snowflake.ID) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MeetsMinimumRole", ctx, guildID, member, minRoleID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MeetsMinimumRole indicates an expected call of MeetsMinimumRole.
func (mr *MockMemberDirectoryMockRecorder) MeetsMinimumRole(ctx, guildID, member, minRoleID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MeetsMinimumRole", reflect.TypeOf((*MockMemberDirectory)(nil).MeetsMinimumRole), ctx, guildID, member, minRoleID)
}

// RoleNames mocks base method.
func (m *MockMemberDirectory) RoleNames(ctx context.Context, guildID snowflake.ID, member *services.GuildMember) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RoleNames", ctx, guildID, member)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RoleNames indicates an expected call of RoleNames.
func (mr *MockMemberDirectoryMockRecorder) RoleNames(ctx, guildID, member any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RoleNames", reflect.TypeOf((*MockMemberDirectory)(nil).RoleNames), ctx, guildID, member)
}

// MockRoleGranter is a mock of RoleGranter interface.
type MockRoleGranter struct {
	ctrl     *gomock.Controller
	recorder *MockRoleGranterMockRecorder
	isgomock struct{}
}

// MockRoleGranterMockRecorder is the mock recorder for MockRoleGranter.
type MockRoleGranterMockRecorder struct {
	mock *MockRoleGranter
}

// NewMockRoleGranter creates a new mock instance.
func NewMockRoleGranter(ctrl *gomock.Controller) *MockRoleGranter {
	mock := &MockRoleGranter{ctrl: ctrl}
	mock.recorder = &MockRoleGranterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRoleGranter) EXPECT() *MockRoleGranterMockRecorder {
	return m.recorder
}

// GrantRole mocks base method.
func (m *MockRoleGranter) GrantRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GrantRole", ctx, guildID, userID, roleID)
	ret0, _ := ret[0].(error)
	return ret0
}

// GrantRole indicates an expected call of GrantRole.
func (mr *MockRoleGranterMockRecorder) GrantRole(ctx, guildID, userID, roleID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GrantRole", reflect.TypeOf((*MockRoleGranter)(nil).GrantRole), ctx, guildID, userID, roleID)
}

// MockOwnerNotifier is a mock of OwnerNotifier interface.
type MockOwnerNotifier struct {
	ctrl     *gomock.Controller
	recorder *MockOwnerNotifierMockRecorder
	isgomock struct{}
}

// MockOwnerNotifierMockRecorder is the mock recorder for MockOwnerNotifier.
type MockOwnerNotifierMockRecorder struct {
	mock *MockOwnerNotifier
}

// NewMockOwnerNotifier creates a new mock instance.
func NewMockOwnerNotifier(ctrl *gomock.Controller) *MockOwnerNotifier {
	mock := &MockOwnerNotifier{ctrl: ctrl}
	mock.recorder = &MockOwnerNotifierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOwnerNotifier) EXPECT() *MockOwnerNotifierMockRecorder {
	return m.recorder
}

// NotifyOwner mocks base method.
func (m *MockOwnerNotifier) NotifyOwner(ctx context.Context, ownerID snowflake.ID, notice services.OwnerNotice) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyOwner", ctx, ownerID, notice)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyOwner indicates an expected call of NotifyOwner.
func (mr *MockOwnerNotifierMockRecorder) NotifyOwner(ctx, ownerID, notice any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyOwner", reflect.TypeOf((*MockOwnerNotifier)(nil).NotifyOwner), ctx, ownerID, notice)
}

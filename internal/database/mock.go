package database

import (
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) GetUserByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockChatRepository) SetOnline(username string, online bool) error {
	args := m.Called(username, online)
	return args.Error(0)
}
func (m *MockChatRepository) UpdateLastActive(username string) error {
	args := m.Called(username)
	return args.Error(0)
}
func (m *MockChatRepository) UpdateTheme(username, theme string) error {
	args := m.Called(username, theme)
	return args.Error(0)
}
func (m *MockChatRepository) ListOnlineUsers() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(msg Message) (Message, error) {
	args := m.Called(msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) ListMessages() ([]Message, error) {
	args := m.Called()
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockChatRepository) CreateTimer(params CreateTimerParams) (Timer, error) {
	args := m.Called(params)
	return args.Get(0).(Timer), args.Error(1)
}
func (m *MockChatRepository) StopTimers(username string) error {
	args := m.Called(username)
	return args.Error(0)
}
func (m *MockChatRepository) GetActiveTimer() (Timer, error) {
	args := m.Called()
	return args.Get(0).(Timer), args.Error(1)
}
func (m *MockChatRepository) ListActiveNotifications() ([]Notification, error) {
	args := m.Called()
	return args.Get(0).([]Notification), args.Error(1)
}

package blob

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(filename string, r io.Reader) (Object, error) {
	args := m.Called(filename, r)
	return args.Get(0).(Object), args.Error(1)
}

package sender

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwachatech/streamgate/internal/lib/smtp"
	"github.com/kwachatech/streamgate/internal/models"
)

type writeCloserMock struct {
	bytes.Buffer
	closed bool
}

func (w *writeCloserMock) Close() error {
	w.closed = true
	return nil
}

type ClientMock struct {
	mock.Mock
	data *writeCloserMock
}

func (m *ClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *ClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *ClientMock) Quit() error            { return m.Called().Error(0) }
func (m *ClientMock) Close() error           { return m.Called().Error(0) }

func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type TransportMock struct {
	mock.Mock
}

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *TransportMock) GetSMTPUser() string {
	return m.Called().String(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSendPasswordResetEmail(t *testing.T) {
	client := &ClientMock{data: &writeCloserMock{}}
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "alice@example.com").Return(nil).Once()
	client.On("Data").Return(client.data, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	transport := new(TransportMock)
	transport.On("Connect").Return(client, nil).Once()
	transport.On("GetSMTPUser").Return("noreply@example.com")

	service := New(transport, newNoopLogger())

	body, err := json.Marshal(models.ResetEmail{Email: "alice@example.com", Token: "reset-token"})
	require.NoError(t, err)

	require.NoError(t, service.SendPasswordResetEmail(body))

	msg := client.data.String()
	assert.Contains(t, msg, "To: alice@example.com")
	assert.Contains(t, msg, "Subject: Password Reset Request")
	assert.Contains(t, msg, "reset-token")
	assert.True(t, client.data.closed)
	client.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestSendPasswordResetEmail_BadPayload(t *testing.T) {
	transport := new(TransportMock)
	service := New(transport, newNoopLogger())

	err := service.SendPasswordResetEmail([]byte("not json"))
	assert.Error(t, err)
	transport.AssertNotCalled(t, "Connect")
}

func TestSendPasswordResetEmail_ConnectFails(t *testing.T) {
	transport := new(TransportMock)
	transport.On("Connect").Return(nil, errors.New("dial refused")).Once()
	transport.On("GetSMTPUser").Return("noreply@example.com")

	service := New(transport, newNoopLogger())

	body, err := json.Marshal(models.ResetEmail{Email: "alice@example.com", Token: "tok"})
	require.NoError(t, err)

	assert.Error(t, service.SendPasswordResetEmail(body))
}

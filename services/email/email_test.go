package emailsvc

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func resetMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Asha", Address: "asha@classesx.com"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": "Asha", "UID": "dWlk", "Token": "tok-en"},
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(nopLogger{})
	svc.SendMessages(resetMessage(), &core.EmailMessage{Subject: "nobody"})

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Asha")
	assert.Contains(t, sent[0].TextContent, "tok-en")
	assert.Contains(t, sent[0].HTMLContent, "tok-en")
}

func TestConsoleService_Format(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(nopLogger{})
	svc.out = &out

	msg := resetMessage()
	require.NoError(t, msg.Attach(strings.NewReader(`{"ok":true}`), "backup.json", "application/json"))
	require.NoError(t, svc.sendMessage(msg))

	body := out.String()
	assert.Contains(t, body, "Subject: ["+core.Conf.AppName+"] Password Reset")
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, "text/html")
	assert.Contains(t, body, "attachment; filename=backup.json")
}

func TestSendgridService_Prepare(t *testing.T) {
	svc := NewSendgridService(nopLogger{})
	msg := resetMessage()
	require.NoError(t, msg.Render())

	m := svc.prepare(*msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "["+core.Conf.AppName+"] Password Reset", m.Personalizations[0].Subject)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestSendgridService_Send(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = 2 * time.Second }()

	tests := []struct {
		name         string
		statuses     []int // answered in turn, the last one repeats
		wantErr      bool
		wantAttempts int32
	}{
		{name: "accepted", statuses: []int{http.StatusAccepted}, wantAttempts: 1},
		{name: "retried after rate limit", statuses: []int{http.StatusTooManyRequests, http.StatusAccepted}, wantAttempts: 2},
		{name: "bad request is final", statuses: []int{http.StatusBadRequest}, wantErr: true, wantAttempts: 1},
		{name: "gives up", statuses: []int{http.StatusServiceUnavailable}, wantErr: true, wantAttempts: sendAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&attempts, 1))
				if n > len(tt.statuses) {
					n = len(tt.statuses)
				}
				assert.Equal(t, sendgridEndpoint, r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			svc := NewSendgridService(nopLogger{})
			svc.key, svc.host = "test-key", srv.URL
			msg := resetMessage()
			require.NoError(t, msg.Render())

			err := svc.send(*msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&attempts))
		})
	}
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anonymousminati/finly-backend/pkg/httpclient"
)

type doerFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f doerFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

func setupNotificationClient(t *testing.T, handler http.HandlerFunc) *NotificationClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
	return NewNotificationClient(httpClient, srv.URL, clientTestLogger())
}

func TestNotifyNewLogin_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	received := make(chan notificationRequest, 1)
	client := setupNotificationClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req notificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			received <- req
		}
		<-release
		w.WriteHeader(http.StatusAccepted)
	})
	defer close(release)

	start := time.Now()
	client.NotifyNewLogin(context.Background(), "uuid-1", "203.0.113.7", "Mozilla/5.0")
	assert.Less(t, time.Since(start), time.Second, "caller must not wait on delivery")

	select {
	case req := <-received:
		assert.Equal(t, "new_login", req.Type)
		assert.Equal(t, "uuid-1", req.UserID)
		assert.Equal(t, "203.0.113.7", req.IPAddress)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never delivered")
	}
}

func TestNotifyPasswordChanged_SurvivesRequestCancellation(t *testing.T) {
	received := make(chan notificationRequest, 1)
	client := setupNotificationClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req notificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			received <- req
		}
		w.WriteHeader(http.StatusAccepted)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client.NotifyPasswordChanged(ctx, "uuid-1")

	select {
	case req := <-received:
		assert.Equal(t, "password_changed", req.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery should not be tied to the request context")
	}
}

func TestNotify_EmptyBaseURL_NoOp(t *testing.T) {
	called := false
	client := NewNotificationClient(doerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	}), "", clientTestLogger())

	client.NotifyNewLogin(context.Background(), "uuid-1", "", "")

	time.Sleep(50 * time.Millisecond)
	assert.False(t, called)
}

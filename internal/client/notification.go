package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anonymousminati/finly-backend/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// NotificationClient delivers security notifications to the notification
// service. Deliveries are fire-and-forget: a failure is logged, never
// surfaced to the caller, because a dead notification service must not block
// logins or password changes.
type NotificationClient struct {
	http    HTTPDoer
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// NewNotificationClient creates a new notification client.
func NewNotificationClient(httpClient HTTPDoer, baseURL string, logger *slog.Logger) *NotificationClient {
	return &NotificationClient{
		http:    httpClient,
		baseURL: baseURL,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

type notificationRequest struct {
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NotifyPasswordChanged tells the notification service a password changed so
// it can alert the account owner.
func (c *NotificationClient) NotifyPasswordChanged(ctx context.Context, userUUID string) {
	c.send(ctx, notificationRequest{
		UserID:  userUUID,
		Type:    "password_changed",
		Message: "Your password was changed. If this was not you, contact support immediately.",
	})
}

// NotifyNewLogin tells the notification service a session was opened from a
// new client.
func (c *NotificationClient) NotifyNewLogin(ctx context.Context, userUUID, ipAddress, userAgent string) {
	c.send(ctx, notificationRequest{
		UserID:    userUUID,
		Type:      "new_login",
		Message:   "A new sign-in to your account was detected.",
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// send dispatches the delivery on its own goroutine so the triggering request
// never waits on the notification service. The context is detached from the
// request's cancellation but keeps its values for log correlation.
func (c *NotificationClient) send(ctx context.Context, payload notificationRequest) {
	if c.baseURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)

	go func() {
		defer cancel()

		if err := c.post(ctx, payload); err != nil {
			c.logger.WarnContext(ctx, "notification delivery failed",
				slog.String("type", payload.Type),
				slog.String("user_id", payload.UserID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (c *NotificationClient) post(ctx context.Context, payload notificationRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call notification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return httpclient.ParseResponseError(resp, "notification")
	}

	return nil
}

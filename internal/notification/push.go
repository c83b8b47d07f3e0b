package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// PushResult sorts the tokens a push did not reach.
type PushResult struct {
	// Retry holds tokens that failed for a reason that may pass.
	Retry []string
	// Invalid holds tokens the backend no longer recognizes.
	Invalid []string
	Err     error
}

// Pusher delivers a push message to device tokens.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string) PushResult
}

// FCMPusher sends through the Firebase Cloud Messaging HTTP v1 API.
type FCMPusher struct {
	messages *fcm.ProjectsMessagesService
	parent   string
}

// NewFCMPusher uses credentialsFile when set, otherwise application default credentials.
func NewFCMPusher(ctx context.Context, projectID, credentialsFile string) (*FCMPusher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create fcm client: %w", err)
	}
	return &FCMPusher{
		messages: fcm.NewProjectsMessagesService(svc),
		parent:   "projects/" + projectID,
	}, nil
}

// Push sends one message per token. Per-token failures are joined into Err.
func (p *FCMPusher) Push(ctx context.Context, tokens []string, title, body string) PushResult {
	var res PushResult
	var errs []error
	for _, token := range tokens {
		req := &fcm.SendMessageRequest{
			Message: &fcm.Message{
				Token: token,
				Notification: &fcm.Notification{
					Title: title,
					Body:  body,
				},
			},
		}
		_, err := p.messages.Send(p.parent, req).Context(ctx).Do()
		if err == nil {
			continue
		}
		errs = append(errs, fmt.Errorf("send to token %s: %w", token, err))
		if isPermanent(err) {
			res.Invalid = append(res.Invalid, token)
		} else {
			res.Retry = append(res.Retry, token)
		}
	}
	res.Err = errors.Join(errs...)
	return res
}

// isPermanent reports FCM rejections that no retry can fix: UNREGISTERED
// (404), INVALID_ARGUMENT (400) and SENDER_ID_MISMATCH (403).
func isPermanent(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusNotFound, http.StatusBadRequest, http.StatusForbidden:
		return true
	}
	return false
}

// LogPusher only logs. Used when no push backend is configured.
type LogPusher struct {
	log *zap.Logger
}

func NewLogPusher(log *zap.Logger) *LogPusher {
	return &LogPusher{log: log}
}

func (p *LogPusher) Push(_ context.Context, tokens []string, title, body string) PushResult {
	p.log.Info("push skipped, no backend configured",
		zap.Int("tokens", len(tokens)),
		zap.String("title", title),
		zap.String("body", body),
	)
	return PushResult{}
}

package push

import (
	"context"
	"errors"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"support-chat/internal/domain/agent"
)

// ErrExpired marks a subscription the push service no longer accepts; the
// caller is responsible for pruning it.
var ErrExpired = errors.New("push subscription expired")

// Sender delivers web push notifications to agent browser subscriptions.
type Sender struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subject         string
}

func NewSender(vapidPublicKey, vapidPrivateKey, subject string) *Sender {
	return &Sender{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subject:         subject,
	}
}

// Send pushes a payload to one subscription. Gone/not-found responses from
// the push service surface as ErrExpired.
func (s *Sender) Send(ctx context.Context, sub agent.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.vapidPublicKey,
		VAPIDPrivateKey: s.vapidPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return errors.New("push service returned " + resp.Status)
	}
	return nil
}

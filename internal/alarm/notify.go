package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Notification is the payload of a system notification.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// Notifier delivers a notification outside the application. Delivery is best
// effort: callers log errors and move on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Permission mirrors the user's consent to system notifications.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(v string) Permission {
	switch p := Permission(strings.ToLower(strings.TrimSpace(v))); p {
	case PermissionGranted, PermissionDenied:
		return p
	default:
		return PermissionDefault
	}
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) error { return nil })

// NewSystemNotifier gates the given backends behind perm. Without a granted
// permission it returns Discard.
func NewSystemNotifier(perm Permission, backends ...Notifier) Notifier {
	if perm != PermissionGranted || len(backends) == 0 {
		return Discard
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return Multi(backends)
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CommandNotifier runs an external program such as notify-send. The
// placeholders {title} and {body} in Args are replaced per notification.
type CommandNotifier struct {
	Args []string
}

func (c CommandNotifier) Notify(ctx context.Context, n Notification) error {
	if len(c.Args) == 0 {
		return nil
	}
	r := strings.NewReplacer("{title}", n.Title, "{body}", n.Body)
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = r.Replace(a)
	}
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WebPushSubscription is a browser push subscription.
type WebPushSubscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// WebPushNotifier sends to a single push subscription signed with VAPID keys.
type WebPushNotifier struct {
	Subscription    WebPushSubscription
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Contact         string
	TTL             int
	HTTPClient      webpush.HTTPClient
}

func (w WebPushNotifier) configured() bool {
	return w.Subscription.Endpoint != "" && w.VAPIDPublicKey != "" && w.VAPIDPrivateKey != ""
}

func (w WebPushNotifier) Notify(ctx context.Context, n Notification) error {
	if !w.configured() {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	ttl := w.TTL
	if ttl <= 0 {
		ttl = 3600
	}
	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: w.Subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: w.Subscription.P256dh,
			Auth:   w.Subscription.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.HTTPClient,
		Subscriber:      w.Contact,
		VAPIDPublicKey:  w.VAPIDPublicKey,
		VAPIDPrivateKey: w.VAPIDPrivateKey,
		TTL:             ttl,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("web push: unexpected status %d", resp.StatusCode)
	}
	return nil
}

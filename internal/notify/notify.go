// Package notify provides the channels a countdown status change is announced on.
package notify

import "context"

// Notifier is implemented by every notification channel. OnStatusChange is
// called once per detected change; a returned error means the change was not
// announced and the notifier's own state was left untouched.
type Notifier interface {
	Name() string
	OnStatusChange(ctx context.Context, status string) error
}

// AlertTitle is the heading used for every announcement.
const AlertTitle = "COUNTDOWN STATUS"

package notify

import "context"

// Notifier delivers the registration confirmation email. Implementations
// are best-effort: the caller treats a failure as log-and-continue and
// never surfaces it to the registering user.
type Notifier interface {
	SendConfirmation(ctx context.Context, toEmail, confirmationLink string) error
}

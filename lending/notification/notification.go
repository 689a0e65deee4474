// Package notification delivers borrower notifications after a transaction was committed.
// Delivery is best effort: failures are retried, then dropped with a warning, and never reach the caller.
package notification

import (
	"context"
	"fmt"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, email, text string) error
}

// BorrowedText is the message sent after a successful borrow.
func BorrowedText(title string) string {
	return fmt.Sprintf("Book %q borrowed successfully.", title)
}

// ReturnedText is the message sent after a successful return.
func ReturnedText(title string) string {
	return fmt.Sprintf("Book %q returned successfully.", title)
}

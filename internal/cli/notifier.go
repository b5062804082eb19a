package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// ToastNotifier renders engine notifications as styled lines on the
// terminal. The display duration only matters to graphical hosts; here
// it is recorded for debugging.
type ToastNotifier struct {
	out io.Writer
}

// NewToastNotifier writes notifications to stdout.
func NewToastNotifier() *ToastNotifier {
	return &ToastNotifier{out: os.Stdout}
}

// Notify prints the message.
func (n *ToastNotifier) Notify(message string, duration time.Duration) {
	fmt.Fprintln(n.out, FormatInfo(message))
	slog.Debug("notification emitted", "message", message, "duration", duration)
}

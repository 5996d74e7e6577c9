package probe

import (
	"fmt"
	"strings"
	"time"
)

// Fixed test message defaults. The subject and body are deliberately not
// configurable per record.
const (
	DefaultSubject = "SMTP TEST"
	DefaultBody    = "This is an automated SMTP test message."
)

// buildMessage assembles the RFC 5322 test message submitted after a
// successful authentication.
func buildMessage(from, to, subject, body string) []byte {
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultBody
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

package auth

import (
	"fmt"
	"log"
	"os"
)

// Mailer delivers account emails. Implementations decide the transport.
type Mailer interface {
	SendVerification(toEmail, username, verifyURL string) error
}

// LogMailer writes the verification link to the application log instead of
// sending mail. It stands in wherever no mail transport is configured.
type LogMailer struct{}

// NewLogMailer creates a new LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendVerification logs the verification link for the given recipient.
func (m *LogMailer) SendVerification(toEmail, username, verifyURL string) error {
	log.Printf("[auth] Verification email for %s <%s>: %s", username, toEmail, verifyURL)
	return nil
}

// verifyBaseURL returns the base URL used to build verification links.
func verifyBaseURL() string {
	if url := os.Getenv("CLIENT_URL"); url != "" {
		return url
	}
	return "http://localhost:5173"
}

// buildVerifyURL builds the link a user follows to verify their email.
func buildVerifyURL(token string) string {
	return fmt.Sprintf("%s/verify/%s", verifyBaseURL(), token)
}

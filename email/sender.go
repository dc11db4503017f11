package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"Attendance/Models"
)

// BuildMessage renders the headers and body of message as sent on the wire.
func BuildMessage(config Models.EmailConfig, message Models.EmailMessage) string {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", config.FromName, config.FromEmail)},
		{"To", strings.Join(message.To, ", ")},
	}
	if len(message.CC) > 0 {
		headers = append(headers, [2]string{"Cc", strings.Join(message.CC, ", ")})
	}
	headers = append(headers,
		[2]string{"Subject", message.Subject},
		[2]string{"Date", time.Now().Format(time.RFC1123Z)},
		[2]string{"MIME-Version", "1.0"},
	)
	if message.IsHTML {
		headers = append(headers, [2]string{"Content-Type", "text/html; charset=UTF-8"})
	} else {
		headers = append(headers, [2]string{"Content-Type", "text/plain; charset=UTF-8"})
	}

	var messageBody strings.Builder
	for _, h := range headers {
		messageBody.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	messageBody.WriteString("\r\n")
	messageBody.WriteString(message.Body)
	return messageBody.String()
}

// DefaultTimeout bounds a whole SMTP session when ctx has no deadline.
const DefaultTimeout = 30 * time.Second

// SendEmail sends an email using the provided configuration and message details.
// The session is abandoned once ctx is done.
func SendEmail(ctx context.Context, config Models.EmailConfig, message Models.EmailMessage) error {
	if !config.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	body := BuildMessage(config, message)

	var recipients []string
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	recipients = append(recipients, message.BCC...)

	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)
	tlsConfig := &tls.Config{
		ServerName:         config.SMTPServer,
		InsecureSkipVerify: config.SkipTLSCheck,
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if config.TLSEnabled {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !config.TLSEnabled {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err = client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}
	if config.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
			if err = client.Auth(auth); err != nil {
				return fmt.Errorf("SMTP authentication failed: %w", err)
			}
		}
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}

	return client.Quit()
}

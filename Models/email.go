package Models

// EmailConfig is the outgoing SMTP account used for leave notifications.
type EmailConfig struct {
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`
	TLSEnabled   bool   `json:"tls_enabled"`
	SkipTLSCheck bool   `json:"skip_tls_check"`
}

// Enabled reports whether enough is configured to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPServer != "" && c.FromEmail != ""
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	IsHTML  bool
}

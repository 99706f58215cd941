package email

import (
	"fmt"

	"LinkChat/logger"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	ClientURL string // link base for verification / reset pages
}

// Sender delivers transactional mail over SMTP. A nil *Sender logs and
// drops, so the signup flow keeps working in environments without SMTP
// credentials.
type Sender struct {
	conf   Config
	dialer *gomail.Dialer
}

func NewSender(conf Config) *Sender {
	if conf.Host == "" {
		return nil
	}
	if conf.Port == 0 {
		conf.Port = 587
	}
	if conf.From == "" {
		conf.From = conf.User
	}
	return &Sender{
		conf:   conf,
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.User, conf.Password),
	}
}

// SendVerification mails the signup verification link.
func (s *Sender) SendVerification(to, fullName, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.clientURL(), token)
	body := fmt.Sprintf(`<h2>Welcome to LinkChat, %s!</h2>
<p>Please verify your email address to activate your account.</p>
<p><a href="%s">Verify Email</a></p>
<p>This link expires in 24 hours. If you did not sign up, ignore this mail.</p>`, fullName, link)
	return s.send(to, "Verify your LinkChat account", body)
}

// SendPasswordReset mails the password reset link.
func (s *Sender) SendPasswordReset(to, fullName, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.clientURL(), token)
	body := fmt.Sprintf(`<h2>Hi %s,</h2>
<p>We received a request to reset your password.</p>
<p><a href="%s">Reset Password</a></p>
<p>This link expires in 1 hour. If you did not request a reset, ignore this mail.</p>`, fullName, link)
	return s.send(to, "Reset your LinkChat password", body)
}

func (s *Sender) send(to, subject, htmlBody string) error {
	if s == nil {
		logger.Warnf("[email] SMTP not configured, dropping %q to %s", subject, to)
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.conf.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "send %q to %s", subject, to)
	}
	return nil
}

func (s *Sender) clientURL() string {
	if s == nil || s.conf.ClientURL == "" {
		return "http://localhost:5173"
	}
	return s.conf.ClientURL
}

package tools

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// Mailer é a capacidade externa de envio de e-mail. Os controllers dependem
// só da interface; em teste usamos um fake que grava as mensagens.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer envia via SMTP com TLS implícito (porta 465).
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	from := m.From
	if from == "" {
		from = m.Username
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	serverAddr := m.Host + ":" + m.Port

	tlsConfig := &tls.Config{ServerName: m.Host}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return nil
}

// Corpos das mensagens transacionais. O token/código viaja SOMENTE por aqui.

func SendDeviceVerificationToken(m Mailer, to, name, token string) error {
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your device verification token is <b>%s</b>. It expires in 30 minutes.</p>", name, token)
	return m.Send(to, "DEVICE VERIFICATION TOKEN", body)
}

func SendVerifyEmailCode(m Mailer, to, code string) error {
	body := fmt.Sprintf("<p>Here is your Email Verification Code %s to verify your email, it expires in 5 minutes.</p>", code)
	return m.Send(to, "VERIFY EMAIL CODE", body)
}

func SendResetPasswordEmail(m Mailer, to, name, resetCode string) error {
	body := fmt.Sprintf("<p>Hello %s,</p><p>Here is your Reset Code %s to reset your password. It expires in 15 minutes.</p>", name, resetCode)
	return m.Send(to, "Reset Your Password", body)
}

func SendAdminCodeEmail(m Mailer, to string) error {
	body := "<p>Your email was approved for admin registration. You can now sign up as an admin with this address.</p>"
	return m.Send(to, "ADMIN REGISTRATION APPROVED", body)
}

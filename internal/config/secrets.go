package config

import (
	"errors"
	"fmt"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobdigest"

// SMTPCredentials are delivery credentials for the digest email.
// They are resolved from the environment; the password additionally falls
// back to the OS keychain when the env var is unset.
type SMTPCredentials struct {
	Host      string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	User      string `env:"SMTP_USER"`
	Password  string `env:"SMTP_PASSWORD"`
	UseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"true"`
	FromEmail string `env:"FROM_EMAIL"`
}

// IMAPCredentials for the email-alert source, env-first like SMTP.
type IMAPCredentials struct {
	Password string `env:"IMAP_PASSWORD"`
}

func LoadSMTPCredentials() (SMTPCredentials, error) {
	var c SMTPCredentials
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse smtp env: %w", err)
	}
	if c.FromEmail == "" {
		c.FromEmail = c.User
	}
	if c.Password == "" && c.User != "" {
		if pw, err := keyring.Get(KeyringService, smtpAccount(c.User, c.Host)); err == nil {
			c.Password = pw
		}
	}
	return c, nil
}

func LoadIMAPPassword(username, host string) (string, error) {
	var c IMAPCredentials
	if err := env.Parse(&c); err != nil {
		return "", fmt.Errorf("parse imap env: %w", err)
	}
	if strings.TrimSpace(c.Password) != "" {
		return c.Password, nil
	}
	pw, err := keyring.Get(KeyringService, imapAccount(username, host))
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", errors.New("IMAP password not found (set IMAP_PASSWORD or store it in the keychain)")
}

func SetSMTPPassword(user, host, password string) error {
	if strings.TrimSpace(user) == "" {
		return errors.New("smtp user is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, smtpAccount(user, host), password)
}

func SetIMAPPassword(user, host, password string) error {
	if strings.TrimSpace(user) == "" {
		return errors.New("imap user is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, imapAccount(user, host), password)
}

func smtpAccount(user, host string) string {
	return fmt.Sprintf("jobdigest:smtp:%s@%s", user, host)
}

func imapAccount(user, host string) string {
	return fmt.Sprintf("jobdigest:imap:%s@%s", user, host)
}

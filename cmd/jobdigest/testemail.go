package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/notify"
)

var testEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Send a test message to verify SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, tzh, err := loadConfig()
		if err != nil {
			return err
		}

		creds, err := config.LoadSMTPCredentials()
		if err != nil {
			return err
		}
		if creds.User == "" || creds.Password == "" {
			return fmt.Errorf("SMTP_USER and SMTP_PASSWORD (or a keychain entry) are required")
		}

		n := notify.New(cfg.Digest, creds, tzh)
		if err := n.SendTest(); err != nil {
			return err
		}
		fmt.Println("test email sent")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testEmailCmd)
}

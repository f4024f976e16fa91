package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Store credentials in the OS keychain",
}

var setSMTPCmd = &cobra.Command{
	Use:   "set-smtp <user> <host>",
	Short: "Store the SMTP password for a user and host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		if err := config.SetSMTPPassword(args[0], args[1], pw); err != nil {
			return err
		}
		fmt.Println("smtp password stored")
		return nil
	},
}

var setIMAPCmd = &cobra.Command{
	Use:   "set-imap <user> <host>",
	Short: "Store the IMAP password for a user and host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		if err := config.SetIMAPPassword(args[0], args[1], pw); err != nil {
			return err
		}
		fmt.Println("imap password stored")
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(setSMTPCmd)
	secretsCmd.AddCommand(setIMAPCmd)
	rootCmd.AddCommand(secretsCmd)
}

// readPassword reads one line from stdin so the secret never lands in shell
// history or process args.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", fmt.Errorf("password is empty")
	}
	return pw, nil
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobapply-engine/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage secrets stored in the OS keychain",
}

var setWebhookTokenCmd = &cobra.Command{
	Use:   "set-webhook-token",
	Short: "Store the bearer token for submitter.webhook_url",
	Long:  "Stores the token in the OS keychain under the webhook host. Pass it with --token or on stdin.",
	RunE:  runSetWebhookToken,
}

var deleteWebhookTokenCmd = &cobra.Command{
	Use:   "delete-webhook-token",
	Short: "Remove the stored webhook token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		acct, err := webhookAccount()
		if err != nil {
			return err
		}
		if err := secrets.DeleteWebhookToken(acct); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", acct)
		return nil
	},
}

var tokenFlag string

func init() {
	setWebhookTokenCmd.Flags().StringVar(&tokenFlag, "token", "", "Token value (read from stdin when omitted)")
	secretsCmd.AddCommand(setWebhookTokenCmd, deleteWebhookTokenCmd)
	rootCmd.AddCommand(secretsCmd)
}

func webhookAccount() (string, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	u := strings.TrimSpace(cfg.Submitter.WebhookURL)
	if u == "" {
		return "", errors.New("submitter.webhook_url is not configured")
	}
	return secrets.WebhookAccount(u), nil
}

func runSetWebhookToken(cmd *cobra.Command, _ []string) error {
	acct, err := webhookAccount()
	if err != nil {
		return err
	}
	tok := tokenFlag
	if tok == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		tok = strings.TrimSpace(line)
	}
	if err := secrets.SetWebhookToken(acct, tok); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "stored token for", acct)
	return nil
}

package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the engine's secrets in the OS keychain.
	KeyringService = "jobapply"
)

var ErrNoToken = errors.New("webhook token not found (set it with `engine secrets set-webhook-token`)")

// WebhookAccount is the keyring account for a submitter endpoint. Tokens
// are per host so pointing at a new endpoint never leaks the old token.
func WebhookAccount(webhookURL string) string {
	host := webhookURL
	if u, err := url.Parse(webhookURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("jobapply:webhook:%s", strings.ToLower(host))
}

func GetWebhookToken(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	tok, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(tok) == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return tok, nil
}

func SetWebhookToken(account, token string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, account, token)
}

func DeleteWebhookToken(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

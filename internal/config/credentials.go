// Credential lookup: the ExternalData capability's credential methods
// (Twitter keys, Google OAuth handle, IMAP password, Telegram bot
// token). Grounded on go-core/config/vault.go's SecretManager: a thin
// wrapper around hashicorp/vault/api that also does the KV-v2 "data"
// unwrapping itself.
package config

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// VaultCredentials resolves secrets from a Vault KV-v2 mount.
type VaultCredentials struct {
	client *api.Client
	mount  string
}

// NewVaultCredentials connects to Vault at address, authenticated with
// token, reading secrets under mount (e.g. "secret/data/fetchd").
func NewVaultCredentials(address, token, mount string) (*VaultCredentials, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	return &VaultCredentials{client: client, mount: mount}, nil
}

func (v *VaultCredentials) read(path string) (map[string]interface{}, error) {
	secret, err := v.client.Logical().Read(v.mount + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data found at %s", path)
	}
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		return nested, nil
	}
	return secret.Data, nil
}

func (v *VaultCredentials) stringField(path, field string) (string, error) {
	data, err := v.read(path)
	if err != nil {
		return "", err
	}
	val, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("secret %s has no string field %q", path, field)
	}
	return val, nil
}

// TwitterBearerToken resolves the Twitter v2 API bearer token.
func (v *VaultCredentials) TwitterBearerToken() (string, error) {
	return v.stringField("twitter", "bearer_token")
}

// TelegramBotToken resolves the bot token the chat sink authenticates with.
func (v *VaultCredentials) TelegramBotToken() (string, error) {
	return v.stringField("telegram", "bot_token")
}

// IMAPPassword resolves a plain IMAP password for the named email account.
func (v *VaultCredentials) IMAPPassword(account string) (string, error) {
	return v.stringField("email/"+account, "password")
}

// GoogleOAuth2 resolves the client id/secret/refresh-token triple for
// a named Gmail OAuth2 handle.
func (v *VaultCredentials) GoogleOAuth2(handle string) (clientID, clientSecret, refreshToken string, err error) {
	data, err := v.read("google/" + handle)
	if err != nil {
		return "", "", "", err
	}
	clientID, _ = data["client_id"].(string)
	clientSecret, _ = data["client_secret"].(string)
	refreshToken, _ = data["refresh_token"].(string)
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return "", "", "", fmt.Errorf("google oauth2 handle %q missing required fields", handle)
	}
	return clientID, clientSecret, refreshToken, nil
}

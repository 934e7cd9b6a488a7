package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/secrets"
)

type SecretsHandler struct {
	Holder *config.Holder
}

type setWebhookTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) account(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := strings.TrimSpace(h.Holder.Get().Submitter.WebhookURL)
	if u == "" {
		WriteError(w, r, http.StatusBadRequest, "no_webhook", "submitter.webhook_url is not configured")
		return "", false
	}
	return secrets.WebhookAccount(u), true
}

func (h SecretsHandler) SetWebhookToken(w http.ResponseWriter, r *http.Request) {
	var req setWebhookTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	if err := secrets.SetWebhookToken(acct, req.Token); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteWebhookToken(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	if err := secrets.DeleteWebhookToken(acct); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

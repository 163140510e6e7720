// Package access implements the per-tenant allow-list check with chat id
// normalization.
//
// Group chat ids are observed in two numeric encodings: the canonical
// supergroup form carries a fixed "-100" prefix in front of the legacy
// short form (-9999 vs -1009999). Operators configure whichever form they
// copied, so membership is tested under both.
package access

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/tenant"
)

const supergroupPrefix = "-100"

// Controller answers allow-list queries against the tenant registry.
type Controller struct {
	registry *tenant.Registry
	logger   *zap.Logger
}

// New constructs a Controller.
func New(registry *tenant.Registry, logger *zap.Logger) *Controller {
	return &Controller{registry: registry, logger: logger}
}

// IsAllowed reports whether the chat may interact with the tenant. An
// unknown tenant or an empty allow-list rejects everything (fail-closed).
func (c *Controller) IsAllowed(tenantID string, chatID int64) bool {
	t, ok := c.registry.ByID(tenantID)
	if !ok {
		return false
	}
	if t.AllowListEmpty() {
		return false
	}
	for _, form := range ChatForms(chatID) {
		if t.AllowedChat(form) {
			return true
		}
	}
	return false
}

// ChatForms returns every textual encoding the chat id may have been
// configured under: the id itself plus, for group chats, the alternate
// canonical/legacy form.
func ChatForms(chatID int64) []string {
	s := strconv.FormatInt(chatID, 10)
	forms := []string{s}
	switch {
	case strings.HasPrefix(s, supergroupPrefix) && len(s) > len(supergroupPrefix):
		forms = append(forms, "-"+s[len(supergroupPrefix):])
	case strings.HasPrefix(s, "-"):
		forms = append(forms, supergroupPrefix+s[1:])
	}
	return forms
}

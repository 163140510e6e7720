// Package tenant builds and serves the immutable per-bot tenant table.
// Tenants are constructed once at startup from configuration; there are no
// update operations afterwards.
package tenant

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/config"
)

// Status reflects how completely a tenant is configured.
type Status string

const (
	// StatusActive tenants have every resolution field configured.
	StatusActive Status = "active"
	// StatusPartial tenants are mounted but missing the API URL or APK
	// template; the affected handlers answer with a configuration-error
	// reply instead.
	StatusPartial Status = "partial"
)

// Tenant is one bot identity. Immutable after construction.
type Tenant struct {
	ID          string
	Token       string
	WebhookPath string
	APIURL      string
	APKTemplate string
	Schedule    *Schedule

	allowedChats map[string]struct{}
	status       Status
}

// Schedule is a tenant's broadcast plan, parsed from config.
type Schedule struct {
	// Times holds UTC trigger times in "HH:MM" form.
	Times []string
	// Message is the broadcast template; "\n" markers become newlines at
	// send time.
	Message string
	// Recipients are the chat ids to broadcast to.
	Recipients []int64
}

// Status reports the tenant's configuration completeness.
func (t *Tenant) Status() Status {
	return t.status
}

// AllowedChat reports whether the given textual chat id form is on the
// tenant's allow-list. An empty list admits nothing.
func (t *Tenant) AllowedChat(form string) bool {
	_, ok := t.allowedChats[form]
	return ok
}

// AllowListEmpty reports whether no chat ids are configured at all.
func (t *Tenant) AllowListEmpty() bool {
	return len(t.allowedChats) == 0
}

// Registry holds every mounted tenant, keyed for the two lookups the rest
// of the service needs: webhook token (dispatcher) and id (scheduler,
// access control).
type Registry struct {
	byToken map[string]*Tenant
	byID    map[string]*Tenant
	ordered []*Tenant
}

// NewRegistry builds the tenant set from configuration. Candidates without
// a token are skipped entirely; candidates missing resolution fields are
// mounted as partial so unrelated keywords still work.
func NewRegistry(cfgs []config.TenantConfig, logger *zap.Logger) *Registry {
	r := &Registry{
		byToken: make(map[string]*Tenant, len(cfgs)),
		byID:    make(map[string]*Tenant, len(cfgs)),
	}
	for _, tc := range cfgs {
		if tc.Token == "" {
			logger.Warn("tenant has no token, not mounting", zap.String("tenant", tc.ID))
			continue
		}
		t := &Tenant{
			ID:           tc.ID,
			Token:        tc.Token,
			WebhookPath:  fmt.Sprintf("/bot/%s/webhook", tc.Token),
			APIURL:       tc.APIURL,
			APKTemplate:  tc.APKTemplate,
			allowedChats: splitSet(tc.AllowedChats),
			Schedule:     parseSchedule(tc.Schedule),
			status:       StatusActive,
		}
		if t.APIURL == "" || t.APKTemplate == "" {
			t.status = StatusPartial
			logger.Info("tenant mounted with partial configuration",
				zap.String("tenant", t.ID),
				zap.Bool("has_api_url", t.APIURL != ""),
				zap.Bool("has_apk_template", t.APKTemplate != ""),
			)
		}
		if t.AllowListEmpty() {
			logger.Warn("tenant allow-list is empty, all chats will be rejected",
				zap.String("tenant", t.ID))
		}
		r.byToken[t.Token] = t
		r.byID[t.ID] = t
		r.ordered = append(r.ordered, t)
	}
	return r
}

// ByToken looks a tenant up by its webhook token.
func (r *Registry) ByToken(token string) (*Tenant, bool) {
	t, ok := r.byToken[token]
	return t, ok
}

// ByID looks a tenant up by its id.
func (r *Registry) ByID(id string) (*Tenant, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// All returns the mounted tenants in configuration order.
func (r *Registry) All() []*Tenant {
	return r.ordered
}

// ActiveCount reports how many tenants are mounted.
func (r *Registry) ActiveCount() int {
	return len(r.ordered)
}

// PartialCount reports how many mounted tenants are missing resolution
// fields and will answer link keywords with the configuration-error reply.
func (r *Registry) PartialCount() int {
	n := 0
	for _, t := range r.ordered {
		if t.Status() == StatusPartial {
			n++
		}
	}
	return n
}

func splitSet(delimited string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(delimited, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set[part] = struct{}{}
	}
	return set
}

func splitList(delimited string) []string {
	var out []string
	for _, part := range strings.Split(delimited, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseSchedule(sc config.ScheduleConfig) *Schedule {
	times := splitList(sc.Times)
	recipients := parseChatIDs(splitList(sc.Recipients))
	if len(times) == 0 || sc.Message == "" || len(recipients) == 0 {
		return nil
	}
	return &Schedule{
		Times:      times,
		Message:    sc.Message,
		Recipients: recipients,
	}
}

func parseChatIDs(forms []string) []int64 {
	var ids []int64
	for _, f := range forms {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

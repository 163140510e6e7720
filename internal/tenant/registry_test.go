package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/config"
)

func TestRegistrySkipsTokenlessTenants(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]config.TenantConfig{
		{ID: "no-token"},
		{ID: "mounted", Token: "tok", APIURL: "https://api.example.com", APKTemplate: "https://*.x/app.apk"},
	}, zap.NewNop())

	require.Equal(t, 1, reg.ActiveCount())
	_, ok := reg.ByID("no-token")
	require.False(t, ok)
	mounted, ok := reg.ByID("mounted")
	require.True(t, ok)
	require.Equal(t, StatusActive, mounted.Status())
	require.Equal(t, "/bot/tok/webhook", mounted.WebhookPath)
}

func TestRegistryPartialStatus(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]config.TenantConfig{
		{ID: "t1", Token: "tok-1", APIURL: "https://api.example.com"},
		{ID: "t2", Token: "tok-2", APKTemplate: "https://*.x/app.apk"},
	}, zap.NewNop())

	for _, id := range []string{"t1", "t2"} {
		got, ok := reg.ByID(id)
		require.True(t, ok)
		require.Equal(t, StatusPartial, got.Status(), "tenant %s", id)
	}
	require.Equal(t, 2, reg.PartialCount())
}

func TestRegistryLookupByToken(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]config.TenantConfig{
		{ID: "t1", Token: "tok-1"},
	}, zap.NewNop())

	got, ok := reg.ByToken("tok-1")
	require.True(t, ok)
	require.Equal(t, "t1", got.ID)
	_, ok = reg.ByToken("nope")
	require.False(t, ok)
}

func TestRegistryAllowList(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]config.TenantConfig{
		{ID: "t1", Token: "tok-1", AllowedChats: " -100123 , -456 ,, "},
	}, zap.NewNop())

	got, _ := reg.ByID("t1")
	require.False(t, got.AllowListEmpty())
	require.True(t, got.AllowedChat("-100123"))
	require.True(t, got.AllowedChat("-456"))
	require.False(t, got.AllowedChat(""))
}

func TestRegistryScheduleParsing(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]config.TenantConfig{
		{
			ID: "t1", Token: "tok-1",
			Schedule: config.ScheduleConfig{
				Times:      "09:00, 21:30",
				Message:    `line1\nline2`,
				Recipients: "-100123, -456, bogus",
			},
		},
		{
			ID: "t2", Token: "tok-2",
			// Missing recipients: no schedule at all.
			Schedule: config.ScheduleConfig{Times: "09:00", Message: "hi"},
		},
	}, zap.NewNop())

	t1, _ := reg.ByID("t1")
	require.NotNil(t, t1.Schedule)
	require.Equal(t, []string{"09:00", "21:30"}, t1.Schedule.Times)
	require.Equal(t, []int64{-100123, -456}, t1.Schedule.Recipients)

	t2, _ := reg.ByID("t2")
	require.Nil(t, t2.Schedule)
}

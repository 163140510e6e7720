package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/botfleet/linkrelay/internal/bot"
)

func TestNewPoolDefaults(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()

	require.Equal(t, 40*time.Second, p.cfg.NavigationTimeout)
	require.Equal(t, 2*time.Second, p.cfg.Settle)
	require.False(t, p.Connected())
	require.Zero(t, p.InUse())
}

func TestAcquirePageFailsFastWhenDisconnected(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()

	_, err := p.AcquirePage(context.Background())
	require.ErrorIs(t, err, bot.ErrBrowserUnavailable)
	require.Zero(t, p.InUse())
}

func TestAcquirePageHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.AcquirePage(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveFinalURLWhenDisconnected(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()

	_, err := p.ResolveFinalURL(context.Background(), "https://a.example.com")
	require.ErrorIs(t, err, bot.ErrBrowserUnavailable)
}

func TestPageReleaseReturnsToBaseline(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()
	p.connected.Store(true)

	baseline := p.InUse()
	page, err := p.AcquirePage(context.Background())
	require.NoError(t, err)
	require.Equal(t, baseline+1, p.InUse())

	page.Close()
	page.Close()
	require.Equal(t, baseline, p.InUse(), "double Close must release exactly once")
}

func TestNavigateHonorsCallerCancellation(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	defer p.Close()
	p.connected.Store(true)

	page, err := p.AcquirePage(context.Background())
	require.NoError(t, err)
	defer page.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = page.Navigate(ctx, "https://a.example.com")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCloseMarksDisconnected(t *testing.T) {
	t.Parallel()

	p := NewPool(Config{})
	p.Close()
	require.False(t, p.Connected())
	// Close again must be safe for shutdown paths that run twice.
	p.Close()
}

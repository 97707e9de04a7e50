package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFactoryRequiresSearchURL(t *testing.T) {
	t.Parallel()

	_, err := NewFactory(Config{})
	require.Error(t, err)
}

func TestNewFactoryAppliesDefaults(t *testing.T) {
	t.Parallel()

	f, err := NewFactory(Config{SearchURL: "https://delhihighcourt.nic.in/case-status"})
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, f.cfg.NavigationTimeout)
	require.NotEmpty(t, f.cfg.UserAgents)
	require.Equal(t, 2*time.Second, f.cfg.MinThinkTime)
	require.Greater(t, f.cfg.MaxThinkTime, f.cfg.MinThinkTime)
}

func TestThinkTimeStaysInRange(t *testing.T) {
	t.Parallel()

	s := &Session{cfg: Config{
		MinThinkTime: 100 * time.Millisecond,
		MaxThinkTime: 300 * time.Millisecond,
	}}
	for i := 0; i < 50; i++ {
		d := s.thinkTime()
		require.GreaterOrEqual(t, d, 100*time.Millisecond)
		require.Less(t, d, 300*time.Millisecond)
	}
}

func TestResponseMetaFallbacks(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	status, headers, url := meta.snapshotWithFallbacks("https://request", "")
	require.Equal(t, 200, status)
	require.NotNil(t, headers)
	require.Equal(t, "https://request", url)

	status, _, url = meta.snapshotWithFallbacks("https://request", "https://final")
	require.Equal(t, 200, status)
	require.Equal(t, "https://final", url)
}

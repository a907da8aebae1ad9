package retry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	max, ok := p.Max(CounterResendCode)
	require.True(t, ok)
	assert.Equal(t, 4, max)

	max, ok = p.Max(CounterVerifyCode)
	require.True(t, ok)
	assert.Equal(t, 3, max)

	assert.Equal(t, []string{CounterResendCode, CounterVerifyCode}, p.Names())
}

func TestParsePolicy(t *testing.T) {
	t.Run("overrides and adds counters", func(t *testing.T) {
		p, err := ParsePolicy([]byte("counters:\n  verify_code: 5\n  search_poll: 2\n"))
		require.NoError(t, err)

		max, _ := p.Max(CounterVerifyCode)
		assert.Equal(t, 5, max)
		max, _ = p.Max(CounterResendCode)
		assert.Equal(t, 4, max)
		max, ok := p.Max("search_poll")
		assert.True(t, ok)
		assert.Equal(t, 2, max)
	})

	t.Run("rejects non positive maximum", func(t *testing.T) {
		_, err := ParsePolicy([]byte("counters:\n  verify_code: 0\n"))
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := ParsePolicy([]byte("counters: [1, 2"))
		assert.Error(t, err)
	})
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("counters:\n  resend_code: 2\n"), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		max, _ := p.Max(CounterResendCode)
		assert.Equal(t, 2, max)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

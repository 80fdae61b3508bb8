package guard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/domain"
)

func TestIsNew(t *testing.T) {
	t.Parallel()

	g := New(100, 50, nil)

	assert.False(t, g.IsNew(time.Now().Add(-time.Hour)))
	assert.True(t, g.IsNew(time.Now().Add(time.Minute)))
	assert.True(t, g.IsNew(time.Time{}), "absent timestamp must count as new")
}

func TestDuplicateTracking(t *testing.T) {
	t.Parallel()

	g := New(100, 50, nil)

	require.False(t, g.IsDuplicate(domain.SourceChannel, "42"))
	g.MarkProcessed(domain.SourceChannel, "42")
	assert.True(t, g.IsDuplicate(domain.SourceChannel, "42"))

	// Same id under a different source kind is a distinct key.
	assert.False(t, g.IsDuplicate(domain.SourceGroup, "42"))
}

func TestFIFOEviction(t *testing.T) {
	t.Parallel()

	g := New(10, 5, nil)
	for i := 0; i < 11; i++ {
		g.MarkProcessed(domain.SourceGroup, fmt.Sprintf("msg-%d", i))
	}

	require.Equal(t, 5, g.Len())
	assert.False(t, g.IsDuplicate(domain.SourceGroup, "msg-0"), "oldest entry must be evicted")
	assert.True(t, g.IsDuplicate(domain.SourceGroup, "msg-10"), "newest entry must survive")
}

package dirty

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.IsAnyDirty())

	tr.MarkDirty("skills")
	tr.MarkDirty("skills")
	tr.MarkDirty("experiences")
	assert.True(t, tr.IsAnyDirty())
	assert.Equal(t, []string{"experiences", "skills"}, tr.DirtySections())

	tr.MarkClean("skills")
	tr.MarkClean("skills")
	assert.False(t, tr.IsDirty("skills"))
	assert.True(t, tr.IsAnyDirty())

	tr.Set("experiences", false)
	assert.False(t, tr.IsAnyDirty())

	tr.Set("projects", true)
	tr.Reset()
	assert.Empty(t, tr.DirtySections())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Set("s", i%2 == 0)
			_ = tr.IsAnyDirty()
		}(i)
	}
	wg.Wait()
}

type item struct {
	Company string   `json:"company,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func TestChanged_AppendThenRemove(t *testing.T) {
	snapshot := []item{{Company: "A"}}
	tr := NewTracker()

	current := append([]item{}, snapshot...)
	current = append(current, item{Company: "B"})
	tr.Set("experiences", Changed(snapshot, current))
	assert.True(t, tr.IsDirty("experiences"))

	current = current[:1]
	tr.Set("experiences", Changed(snapshot, current))
	assert.False(t, tr.IsDirty("experiences"))
}

func TestChanged(t *testing.T) {
	assert.False(t, Changed(nil, []item{}))
	assert.False(t, Changed([]item{{Company: "A", Tags: nil}}, []item{{Company: "A", Tags: []string{}}}))
	assert.True(t, Changed([]item{{Company: "A"}}, []item{{Company: "a"}}))
	assert.True(t, Changed(map[string]int{"a": 1}, map[string]int{"a": 2}))
	assert.True(t, Changed(func() {}, 1), "unmarshalable values count as changed")
}

func TestRegistry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	a := r.For("guest-a")
	a.MarkDirty("skills")
	assert.Same(t, a, r.For("guest-a"))

	now = now.Add(time.Hour)
	r.For("guest-b")

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.For("guest-a").IsAnyDirty(), "swept tracker is recreated clean")

	r.Forget("guest-b")
	assert.Equal(t, 1, r.Len())
}

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	b := New()
	id1, ch1 := b.Subscribe(4)
	id2, ch2 := b.Subscribe(4)
	defer b.Unsubscribe(id2)

	b.PublishNew(TypeTaskChanged, "t1", map[string]string{"status": "pending"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		ev := <-ch
		require.NotNil(t, ev)
		assert.Equal(t, TypeTaskChanged, ev.Type)
		assert.Equal(t, "t1", ev.ResourceID)
		assert.NotEmpty(t, ev.ID)
	}

	b.Unsubscribe(id1)
	_, ok := <-ch1
	assert.False(t, ok)
}

func TestBus_DropsWhenFull(t *testing.T) {
	b := New()
	id, ch := b.Subscribe(1)
	defer b.Unsubscribe(id)

	b.PublishNew(TypeTaskChanged, "a", nil)
	b.PublishNew(TypeTaskChanged, "b", nil)

	ev := <-ch
	assert.Equal(t, "a", ev.ResourceID)
	assert.Len(t, ch, 0)
	assert.Equal(t, uint64(1), b.Dropped())
}

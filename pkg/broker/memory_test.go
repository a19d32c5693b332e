package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
)

func receive(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMemory_PublishFanOutPerGroup(t *testing.T) {
	b := NewMemory()
	billing, releaseBilling := b.Subscribe("orders", "billing")
	defer releaseBilling()
	audit, releaseAudit := b.Subscribe("orders", "audit")
	defer releaseAudit()

	msg, err := b.Publish(context.Background(), "orders", []byte("hello"), map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	assert.Equal(t, msg.ID, receive(t, billing).ID)
	assert.Equal(t, msg.ID, receive(t, audit).ID)
}

func TestMemory_SameGroupSharesChannel(t *testing.T) {
	b := NewMemory()
	a, releaseA := b.Subscribe("orders", "billing")
	c, releaseC := b.Subscribe("orders", "billing")
	defer releaseA()
	defer releaseC()

	assert.Equal(t, a, c)
}

func TestMemory_DefaultGroup(t *testing.T) {
	b := NewMemory()
	ch, release := b.Subscribe("orders", "")
	defer release()

	_, err := b.Publish(context.Background(), "orders", []byte("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "orders", receive(t, ch).Destination)
}

func TestMemory_ReleaseDetaches(t *testing.T) {
	b := NewMemory()
	_, release := b.Subscribe("orders", "billing")
	assert.Equal(t, 1, b.Destinations())

	release()
	release() // idempotent
	assert.Equal(t, 0, b.Destinations())

	_, err := b.Publish(context.Background(), "orders", []byte("dropped"), nil)
	assert.NoError(t, err)
}

func TestMemory_PublishValidation(t *testing.T) {
	b := NewMemory()
	_, err := b.Publish(context.Background(), "", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestMemory_PublishBlocksUntilContextDone(t *testing.T) {
	b := NewMemory(WithBufferSize(1))
	_, release := b.Subscribe("orders", "billing")
	defer release()

	_, err := b.Publish(context.Background(), "orders", []byte("1"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.Publish(ctx, "orders", []byte("2"), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestMemory_PublishIsAllOrNothing(t *testing.T) {
	b := NewMemory(WithBufferSize(1))
	a, releaseA := b.Subscribe("orders", "a")
	defer releaseA()
	full, releaseFull := b.Subscribe("orders", "b")
	defer releaseFull()

	_, err := b.Publish(context.Background(), "orders", []byte("0"), nil)
	require.NoError(t, err)
	receive(t, a) // a has room again, b is still full

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	msg, err := b.Publish(ctx, "orders", []byte("1"), nil)
	assert.Nil(t, msg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
	assert.Empty(t, a, "no group may receive a message whose publish failed")

	assert.Equal(t, "0", string(receive(t, full).Payload))
	msg, err = b.Publish(context.Background(), "orders", []byte("2"), nil)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, receive(t, a).ID)
	assert.Equal(t, msg.ID, receive(t, full).ID)
}

func TestMemory_PublishWaitsForRoom(t *testing.T) {
	b := NewMemory(WithBufferSize(1))
	ch, release := b.Subscribe("orders", "billing")
	defer release()

	_, err := b.Publish(context.Background(), "orders", []byte("1"), nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-ch
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := b.Publish(ctx, "orders", []byte("2"), nil)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, receive(t, ch).ID)
}

package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/types"
)

func newRequest() *message.Message {
	return message.New(message.CommandPing, message.TypeRequest1, types.PeerAddress{}, types.PeerAddress{})
}

// TestResponse_CompleteOnce 测试重复完成无可观测效果
func TestResponse_CompleteOnce(t *testing.T) {
	req := newRequest()
	r := New(req, nil)
	reply := message.New(message.CommandPing, message.TypeOK, types.PeerAddress{}, types.PeerAddress{}).WithID(req.ID())

	assert.False(t, r.IsCompleted())
	assert.True(t, r.Complete(reply))

	assert.False(t, r.Complete(newRequest()), "第二次 Complete 应为 no-op")
	assert.False(t, r.Fail(ErrTimeout), "完成后 Fail 应为 no-op")
	assert.False(t, r.Cancel())

	assert.True(t, r.IsSuccess())
	assert.Same(t, reply, r.Reply())
	assert.NoError(t, r.Err())
}

func TestResponse_FailThenComplete(t *testing.T) {
	r := New(newRequest(), nil)

	assert.True(t, r.Fail(ErrTimeout))
	assert.False(t, r.Complete(newRequest()))

	assert.False(t, r.IsSuccess())
	assert.True(t, r.IsCompleted())
	assert.ErrorIs(t, r.Err(), ErrTimeout)
	assert.Nil(t, r.Reply())
}

func TestResponse_FailNilDefaultsToTransport(t *testing.T) {
	r := New(newRequest(), nil)
	r.Fail(nil)
	assert.ErrorIs(t, r.Err(), ErrTransport)
}

// TestResponse_ConcurrentCompletion 测试并发完成只有一个生效
func TestResponse_ConcurrentCompletion(t *testing.T) {
	r := New(newRequest(), nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = r.Complete(nil)
			} else {
				ok = r.Fail(ErrTimeout)
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestResponse_OnComplete(t *testing.T) {
	r := New(newRequest(), nil)

	var calls atomic.Int32
	r.OnComplete(func(*Response) { calls.Add(1) })
	r.Complete(nil)
	r.Complete(nil)
	assert.Equal(t, int32(1), calls.Load())

	// 完成后注册的回调立即执行
	r.OnComplete(func(*Response) { calls.Add(1) })
	assert.Equal(t, int32(2), calls.Load())
}

func TestResponse_Await(t *testing.T) {
	t.Run("完成", func(t *testing.T) {
		r := New(newRequest(), nil)
		go func() {
			time.Sleep(10 * time.Millisecond)
			r.Fail(ErrTimeout)
		}()
		_, err := r.Await(context.Background())
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("ctx取消不完成响应", func(t *testing.T) {
		r := New(newRequest(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Await(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, r.IsCompleted())

		require.True(t, r.Cancel())
		_, err = r.Await(context.Background())
		assert.ErrorIs(t, err, ErrCancelled)
	})
}

func TestFailed(t *testing.T) {
	r := Failed(newRequest(), nil, TransportFailure(errors.New("no route")))
	assert.True(t, r.IsCompleted())
	assert.ErrorIs(t, r.Err(), ErrTransport)
	assert.Contains(t, r.Err().Error(), "no route")
}

func TestTransportFailure(t *testing.T) {
	assert.ErrorIs(t, TransportFailure(nil), ErrTransport)

	wrapped := TransportFailure(errors.New("boom"))
	assert.Same(t, wrapped, TransportFailure(wrapped), "不重复包装")
	assert.False(t, errors.Is(wrapped, ErrTimeout))
}

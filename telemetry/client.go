package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/joeycumines/go-longpoll"
	"github.com/m2cell/cellctrl/internal/calog"
)

// PushBack is a client-submitted value accepted back through a client's
// push-back channel, per §4.J's "clients may push back updates...via the
// same channel" allowance. Name identifies which item the client intends
// to override.
type PushBack struct {
	Name  string
	Value json.RawMessage
}

// Client is one connected telemetry subscriber: every tick's items are
// written to w, and out-of-band pushBack values submitted by the client
// arrive on pushBack, batched by DrainPushBack.
type Client struct {
	w        io.Writer
	log      *calog.Log
	pushBack chan PushBack
}

// NewClient wraps w as a telemetry subscriber. pushBackBuffer sizes the
// push-back channel; 0 uses a sensible default.
func NewClient(w io.Writer, log *calog.Log, pushBackBuffer int) *Client {
	if pushBackBuffer <= 0 {
		pushBackBuffer = 16
	}
	return &Client{w: w, log: log, pushBack: make(chan PushBack, pushBackBuffer)}
}

// Send writes item to the client's stream, one JSON line per item.
func (c *Client) Send(item Item) error {
	b, err := EncodeItem(item)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = c.w.Write(b)
	return err
}

// SubmitPushBack enqueues a client-sourced value for later draining. It
// never blocks: a full push-back channel drops the value and logs it, so
// a stalled drainer cannot back-pressure the connection's reader.
func (c *Client) SubmitPushBack(v PushBack) {
	select {
	case c.pushBack <- v:
	default:
		c.log.Warning().Str("item", v.Name).Log("push-back channel full, dropping value")
	}
}

// DrainPushBack blocks until at least one push-back value is available (or
// ctx is canceled), then returns as many as arrived within the batching
// window, handing each to handle in arrival order. This is the
// longpoll.Channel batching point: a burst of near-simultaneous
// submissions collapses into one drain.
func (c *Client) DrainPushBack(ctx context.Context, handle func(PushBack) error) error {
	return longpoll.Channel(ctx, &longpoll.ChannelConfig{
		MaxSize:        32,
		MinSize:        1,
		PartialTimeout: 20 * time.Millisecond,
	}, c.pushBack, handle)
}

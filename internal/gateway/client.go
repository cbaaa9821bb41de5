package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by Subscribe after Close.
	ErrClosed = errors.New("gateway: client closed")
	// ErrNotConnected is returned by Subscribe before Connect succeeds.
	ErrNotConnected = errors.New("gateway: not connected")
	// ErrStreamEnded is reported by Err when the server closed the stream.
	ErrStreamEnded = errors.New("gateway: event stream ended")
)

// SubscriptionError reports a rejected Subscribe call.
type SubscriptionError struct {
	Topic string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("gateway: subscribe %q: %v", e.Topic, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

type subscription struct {
	topic string
	cb    Callback
	state *topicState
}

// topicState tracks the subscribers of one topic. ready is closed once the
// first subscriber's configure request has completed; err holds its outcome.
type topicState struct {
	subs  int
	ready chan struct{}
	err   error
}

// Client holds a single listen stream to the gateway and dispatches its
// events to subscribers. It does not reconnect: once the stream ends, Done
// is closed and Err reports why.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	logger   *slog.Logger

	mu         sync.Mutex
	subs       map[Handle]subscription
	topics     map[string]*topicState
	nextHandle Handle
	batch      int
	connected  bool
	closed     bool
	ctx        context.Context
	cancel     context.CancelFunc
	err        error

	// dispatchMu is held while callbacks run so Unsubscribe can wait out
	// an in-flight delivery.
	dispatchMu sync.Mutex

	done    chan struct{}
	pending sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithClientID sets the dispatcher id; by default a random UUID is used.
func WithClientID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.clientID = id
		}
	}
}

// WithHTTPClient sets the client used for connect/configure requests. Its
// Transport is reused for the listen stream, without the Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for the Jenkins instance at baseURL
// (e.g. "http://localhost:8080/jenkins").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		clientID: uuid.NewString(),
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   slog.Default(),
		subs:     make(map[Handle]subscription),
		topics:   make(map[string]*topicState),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "gateway", "client_id", c.clientID)
	return c
}

// ClientID returns the dispatcher id this client registered with.
func (c *Client) ClientID() string { return c.clientID }

// Connect registers the client with the gateway and opens the listen
// stream. Events are dispatched from a background goroutine until ctx is
// cancelled, Close is called, or the server ends the stream.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("gateway: already connected")
	}
	c.mu.Unlock()

	connectURL := c.baseURL + "/sse-gateway/connect?clientId=" + url.QueryEscape(c.clientID)
	if err := c.post(ctx, connectURL, nil); err != nil {
		return fmt.Errorf("gateway: connect: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet,
		c.baseURL+"/sse-gateway/listen/"+url.PathEscape(c.clientID), nil)
	if err != nil {
		cancel()
		return fmt.Errorf("gateway: listen: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("gateway: listen: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("gateway: listen: unexpected status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("gateway: listen: unexpected content type %q", ct)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		resp.Body.Close()
		cancel()
		return ErrClosed
	}
	c.connected = true
	c.ctx = streamCtx
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Info("connected to gateway", "url", c.baseURL)
	go c.readLoop(streamCtx, resp.Body)
	return nil
}

// Subscribe registers cb for events on topic. The first subscription to a
// topic asks the gateway to start sending it; if that request fails the
// registration is rolled back and a *SubscriptionError is returned.
// Concurrent subscribers to the same topic wait for that request and share
// its outcome.
func (c *Client) Subscribe(topic string, cb Callback) (Handle, error) {
	if topic == "" {
		return 0, &SubscriptionError{Topic: topic, Err: errors.New("empty topic")}
	}
	if cb == nil {
		return 0, &SubscriptionError{Topic: topic, Err: errors.New("nil callback")}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, &SubscriptionError{Topic: topic, Err: ErrClosed}
	}
	if !c.connected {
		c.mu.Unlock()
		return 0, &SubscriptionError{Topic: topic, Err: ErrNotConnected}
	}
	ts, ok := c.topics[topic]
	if !ok {
		ts = &topicState{ready: make(chan struct{})}
		c.topics[topic] = ts
	}
	c.nextHandle++
	h := c.nextHandle
	c.subs[h] = subscription{topic: topic, cb: cb, state: ts}
	ts.subs++
	c.mu.Unlock()

	if !ok {
		err := c.configure([]string{topic}, nil)
		c.mu.Lock()
		ts.err = err
		if err != nil && c.topics[topic] == ts {
			// Later subscribers start over with a fresh request.
			delete(c.topics, topic)
		}
		close(ts.ready)
		c.mu.Unlock()
	} else {
		<-ts.ready
	}

	if ts.err != nil {
		c.rollback(h)
		return 0, &SubscriptionError{Topic: topic, Err: ts.err}
	}
	c.logger.Debug("subscribed", "topic", topic, "handle", uint64(h))
	return h, nil
}

// rollback drops a registration whose Subscribe failed. Holding dispatchMu
// keeps an in-flight dispatch from calling cb after Subscribe returns.
func (c *Client) rollback(h Handle) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.remove(h)
}

// Unsubscribe releases h. When it returns, the callback registered under h
// is not running and will not be called again. Unknown handles are ignored.
// When the last subscriber of a topic leaves, the gateway is told to stop
// sending it; that request runs in the background.
func (c *Client) Unsubscribe(h Handle) {
	topic, last, ok := c.remove(h)
	if !ok {
		return
	}

	// Wait out any in-flight dispatch.
	c.dispatchMu.Lock()
	c.dispatchMu.Unlock() //nolint:staticcheck

	c.logger.Debug("unsubscribed", "topic", topic, "handle", uint64(h))

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !last || closed {
		return
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.configure(nil, []string{topic}); err != nil {
			c.logger.Warn("unsubscribe configure failed", "topic", topic, "error", err)
		}
	}()
}

// Close stops the listen stream and rejects further subscriptions. It is
// safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	connected := c.connected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if connected {
		<-c.done
	} else {
		close(c.done)
	}
	c.pending.Wait()
	return nil
}

// Done is closed when the listen stream has terminated.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the stream terminated. It is nil while the stream is
// open and after a clean Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// remove deletes h from the registry and reports whether it was the last
// subscriber of its topic.
func (c *Client) remove(h Handle) (topic string, last bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[h]
	if !ok {
		return "", false, false
	}
	delete(c.subs, h)
	sub.state.subs--
	if sub.state.subs <= 0 && c.topics[sub.topic] == sub.state {
		delete(c.topics, sub.topic)
		last = true
	}
	return sub.topic, last, true
}

func (c *Client) readLoop(ctx context.Context, body io.ReadCloser) {
	defer close(c.done)
	defer body.Close()

	err := ReadFrames(body, func(f Frame) {
		ev, ok := DecodeEvent(f)
		if !ok {
			c.logger.Debug("dropped undecodable frame", "event", f.Event, "id", f.ID)
			return
		}
		c.dispatch(ev)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case ctx.Err() != nil && c.closed:
		c.err = nil
	case ctx.Err() != nil:
		c.err = ctx.Err()
	case err != nil:
		c.err = fmt.Errorf("gateway: read stream: %w", err)
	default:
		c.err = ErrStreamEnded
	}
	if c.err != nil {
		c.logger.Warn("event stream terminated", "error", c.err)
	}
}

// dispatch delivers ev to every subscriber of its channel in handle order.
func (c *Client) dispatch(ev Event) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	for _, cb := range c.callbacksFor(ev.Channel) {
		cb(ev)
	}
}

func (c *Client) callbacksFor(topic string) []Callback {
	c.mu.Lock()
	defer c.mu.Unlock()
	handles := make([]Handle, 0, len(c.subs))
	for h, sub := range c.subs {
		if sub.topic == topic {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	cbs := make([]Callback, len(handles))
	for i, h := range handles {
		cbs[i] = c.subs[h].cb
	}
	return cbs
}

type channelRef struct {
	Channel string `json:"jenkins_channel"`
}

type configureRequest struct {
	DispatcherID string       `json:"dispatcherId"`
	Subscribe    []channelRef `json:"subscribe"`
	Unsubscribe  []channelRef `json:"unsubscribe"`
}

// configure sends a subscription batch to the gateway.
func (c *Client) configure(subscribe, unsubscribe []string) error {
	c.mu.Lock()
	c.batch++
	batch := c.batch
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	body := configureRequest{
		DispatcherID: c.clientID,
		Subscribe:    toChannelRefs(subscribe),
		Unsubscribe:  toChannelRefs(unsubscribe),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gateway: marshal configure: %w", err)
	}
	u := c.baseURL + "/sse-gateway/configure?batchId=" + strconv.Itoa(batch)
	if err := c.post(ctx, u, data); err != nil {
		return fmt.Errorf("gateway: configure batch %d: %w", batch, err)
	}
	return nil
}

func toChannelRefs(topics []string) []channelRef {
	refs := make([]channelRef, len(topics))
	for i, t := range topics {
		refs[i] = channelRef{Channel: t}
	}
	return refs
}

func (c *Client) post(ctx context.Context, u string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// Package feed maintains a live view of in-play matches streamed from the
// external scraping layer over WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/metrics"
	"github.com/yourusername/goal-edge/internal/models"
)

const handshakeTimeout = 10 * time.Second

// entry pairs a snapshot with its arrival time so stale fixtures can be
// dropped from analysis.
type entry struct {
	snapshot   models.MatchSnapshot
	receivedAt time.Time
}

// Client handles the WebSocket connection to the snapshot feed. It keeps
// only the latest snapshot per fixture; snapshots of the same fixture from
// different odds sources are merged rather than replaced.
type Client struct {
	cfg    *config.FeedConfig
	logger *logrus.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	lastMessageTime time.Time
	snapshots       map[string]entry

	now func() time.Time
}

// NewClient creates a feed client. It does not connect; call Run.
func NewClient(cfg *config.FeedConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:       cfg,
		logger:    logger,
		snapshots: make(map[string]entry),
		now:       time.Now,
	}
}

// Run connects to the feed and keeps reading until the context is
// cancelled. Dropped connections are retried with exponential backoff up
// to MaxRetries; a successful read resets the retry budget.
func (c *Client) Run(ctx context.Context) error {
	backoff := time.Duration(c.cfg.InitialBackoffMS) * time.Millisecond
	maxBackoff := time.Duration(c.cfg.MaxBackoffMS) * time.Millisecond
	retries := 0

	for {
		if err := c.connect(ctx); err != nil {
			retries++
			if c.cfg.MaxRetries > 0 && retries > c.cfg.MaxRetries {
				return fmt.Errorf("feed connection retries exhausted: %w", err)
			}

			metrics.RecordFeedReconnect()
			c.logger.WithError(err).WithFields(logrus.Fields{
				"attempt": retries,
				"backoff": backoff.String(),
			}).Warn("Feed connection failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * c.cfg.BackoffMultiplier)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		retries = 0
		backoff = time.Duration(c.cfg.InitialBackoffMS) * time.Millisecond

		if err := c.readMessages(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordFeedReconnect()
			c.logger.WithError(err).Warn("Feed connection dropped, reconnecting")
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isConnected {
		return nil
	}

	c.logger.WithField("url", c.cfg.URL).Info("Connecting to snapshot feed")

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to feed: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.lastMessageTime = c.now()

	return nil
}

func (c *Client) readMessages(ctx context.Context) error {
	defer c.closeConn()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.closeConn()
		case <-done:
		}
	}()

	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			return err
		}

		c.mu.Lock()
		c.lastMessageTime = c.now()
		c.mu.Unlock()

		if err := c.handleMessage(raw); err != nil {
			c.logger.WithError(err).Debug("Discarded feed message")
		}
	}
}

// handleMessage ingests one snapshot message. A snapshot from a second
// odds source for a fixture already tracked is merged; one from the same
// source replaces the previous view of that fixture.
func (c *Client) handleMessage(raw []byte) error {
	var snap models.MatchSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.HomeTeam == "" || snap.AwayTeam == "" {
		return models.ErrInvalidSnapshot
	}

	metrics.RecordSnapshotReceived()
	key := snap.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.snapshots[key]
	if ok && existing.snapshot.Source != snap.Source && !c.stale(existing) {
		snap = models.MergeSnapshots(snap, existing.snapshot)
		metrics.RecordSnapshotMerged()
	}

	c.snapshots[key] = entry{snapshot: snap, receivedAt: c.now()}
	metrics.UpdateLiveMatches(len(c.snapshots))

	return nil
}

// Snapshots returns the current live matches, dropping fixtures not seen
// within the staleness window.
func (c *Client) Snapshots() []models.MatchSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]models.MatchSnapshot, 0, len(c.snapshots))
	for key, e := range c.snapshots {
		if c.stale(e) {
			delete(c.snapshots, key)
			continue
		}
		result = append(result, e.snapshot)
	}

	metrics.UpdateLiveMatches(len(c.snapshots))
	return result
}

func (c *Client) stale(e entry) bool {
	if c.cfg.StaleAfterSeconds <= 0 {
		return false
	}
	return c.now().Sub(e.receivedAt) > time.Duration(c.cfg.StaleAfterSeconds)*time.Second
}

// IsConnected returns whether the feed connection is up
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// LastMessageTime returns the time of the last received message
func (c *Client) LastMessageTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMessageTime
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}

	c.isConnected = false
	_ = c.conn.Close()
	c.conn = nil
}

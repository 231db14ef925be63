package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/models"
)

func testFeedConfig(url string) *config.FeedConfig {
	return &config.FeedConfig{
		Enabled:           true,
		URL:               url,
		MaxRetries:        2,
		InitialBackoffMS:  10,
		MaxBackoffMS:      50,
		BackoffMultiplier: 2,
		StaleAfterSeconds: 120,
	}
}

func newTestClient(url string) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(testFeedConfig(url), logger)
}

func odds(v float64) *float64 {
	return &v
}

func snapshotJSON(t *testing.T, snap models.MatchSnapshot) []byte {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	return data
}

func TestHandleMessageStoresSnapshot(t *testing.T) {
	client := newTestClient("")

	snap := models.MatchSnapshot{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea",
		HomeScore: 1, Minute: 40, Source: "site_a",
		Odds: models.MarketOdds{HomeWin: odds(1.8)},
	}
	require.NoError(t, client.handleMessage(snapshotJSON(t, snap)))

	snapshots := client.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, "Arsenal", snapshots[0].HomeTeam)
	assert.Equal(t, 1, snapshots[0].HomeScore)
}

func TestHandleMessageRejectsMissingTeams(t *testing.T) {
	client := newTestClient("")

	err := client.handleMessage([]byte(`{"home_team": "", "away_team": "Chelsea"}`))
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)
	assert.Empty(t, client.Snapshots())
}

func TestHandleMessageRejectsMalformedJSON(t *testing.T) {
	client := newTestClient("")

	assert.Error(t, client.handleMessage([]byte(`{not json`)))
}

func TestHandleMessageReplacesSameSource(t *testing.T) {
	client := newTestClient("")

	first := models.MatchSnapshot{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", Minute: 40, Source: "site_a",
		Odds: models.MarketOdds{HomeWin: odds(1.8), Draw: odds(3.6)},
	}
	second := models.MatchSnapshot{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeScore: 1, Minute: 44, Source: "site_a",
		Odds: models.MarketOdds{HomeWin: odds(1.4)},
	}
	require.NoError(t, client.handleMessage(snapshotJSON(t, first)))
	require.NoError(t, client.handleMessage(snapshotJSON(t, second)))

	snapshots := client.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].HomeScore)
	assert.Equal(t, 44, snapshots[0].Minute)
	// Same-source updates replace wholesale, stale draw odds do not linger
	assert.Nil(t, snapshots[0].Odds.Draw)
}

func TestHandleMessageMergesAcrossSources(t *testing.T) {
	client := newTestClient("")

	siteA := models.MatchSnapshot{
		HomeTeam: "Arsenal FC", AwayTeam: "Chelsea", Minute: 40, Source: "site_a",
		Odds: models.MarketOdds{HomeWin: odds(1.8), Draw: odds(3.6)},
	}
	siteB := models.MatchSnapshot{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", Minute: 41, Source: "site_b",
		Odds: models.MarketOdds{HomeWin: odds(1.9)},
	}
	require.NoError(t, client.handleMessage(snapshotJSON(t, siteA)))
	require.NoError(t, client.handleMessage(snapshotJSON(t, siteB)))

	snapshots := client.Snapshots()
	require.Len(t, snapshots, 1)

	merged := snapshots[0]
	assert.Equal(t, 1.9, *merged.Odds.HomeWin)
	assert.Equal(t, 3.6, *merged.Odds.Draw)
	assert.Contains(t, merged.AlsoOn, "site_b")
}

func TestSnapshotsDropStaleEntries(t *testing.T) {
	client := newTestClient("")

	current := time.Now()
	client.now = func() time.Time { return current }

	snap := models.MatchSnapshot{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", Minute: 40, Source: "site_a",
	}
	require.NoError(t, client.handleMessage(snapshotJSON(t, snap)))
	require.Len(t, client.Snapshots(), 1)

	current = current.Add(121 * time.Second)
	assert.Empty(t, client.Snapshots())
}

func TestRunReceivesSnapshotsOverWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	sent := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		snap := models.MatchSnapshot{
			HomeTeam: "Arsenal", AwayTeam: "Chelsea",
			HomeScore: 2, Minute: 60, Source: "site_a",
			Odds: models.MarketOdds{HomeWin: odds(1.3)},
		}
		require.NoError(t, conn.WriteJSON(snap))
		close(sent)

		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client := newTestClient(wsURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()

	<-sent
	require.Eventually(t, func() bool {
		return len(client.Snapshots()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, client.IsConnected())
	assert.False(t, client.LastMessageTime().IsZero())

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRunGivesUpAfterMaxRetries(t *testing.T) {
	// Nothing listens on this address
	client := newTestClient("ws://127.0.0.1:1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

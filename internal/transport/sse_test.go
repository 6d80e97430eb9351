package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/synheart/consciousness-bridge/internal/encoding"
	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap/zaptest"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSSEHub_Broadcast(t *testing.T) {
	hub := NewSSEHub(encoding.NewJSONEncoder(), zaptest.NewLogger(t))
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("wrong content type: %s", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	if err := hub.Broadcast(models.State{MoodState: "euphoric", BondStrength: 8.2}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("expected data frame, got %q", line)
	}

	var state models.State
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &state); err != nil {
		t.Fatalf("frame is not a JSON state: %v", err)
	}
	if state.MoodState != "euphoric" {
		t.Errorf("expected euphoric, got %q", state.MoodState)
	}
}

func TestSSEHub_ClientCount(t *testing.T) {
	hub := NewSSEHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	reqCtx, reqCancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			buf := make([]byte, 64)
			for {
				if _, err := resp.Body.Read(buf); err != nil {
					break
				}
			}
			resp.Body.Close()
		}
	}()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	reqCancel()
	<-done
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestSSEHub_CloseWithClients(t *testing.T) {
	hub := NewSSEHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		resp, err := http.Get(server.URL)
		if err == nil {
			buf := make([]byte, 64)
			for {
				if _, err := resp.Body.Read(buf); err != nil {
					break
				}
			}
			resp.Body.Close()
		}
	}()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := hub.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	select {
	case <-clientDone:
	case <-time.After(2 * time.Second):
		t.Fatal("client stream did not end after hub close")
	}

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after close, got %d", resp.StatusCode)
	}
}

func TestSSEHub_ManyClients(t *testing.T) {
	hub := NewSSEHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	const clients = 5
	var wg sync.WaitGroup
	frames := make(chan string, clients)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			line, err := bufio.NewReader(resp.Body).ReadString('\n')
			if err == nil {
				frames <- line
			}
		}()
	}

	waitFor(t, func() bool { return hub.ClientCount() == clients })
	hub.Broadcast(models.State{MoodState: "meditative"})
	wg.Wait()
	close(frames)

	count := 0
	for frame := range frames {
		if !strings.Contains(frame, "meditative") {
			t.Errorf("unexpected frame %q", frame)
		}
		count++
	}
	if count != clients {
		t.Errorf("expected %d frames, got %d", clients, count)
	}
}

func TestSSEHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewSSEHub(nil, nil)
	if err := hub.Broadcast(models.State{MoodState: "excited"}); err != nil {
		t.Errorf("broadcast with no clients should be a no-op, got %v", err)
	}
}

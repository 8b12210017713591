package ws

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		if !ok {
			t.Fatalf("%s: channel closed", c.ID)
		}
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			t.Fatalf("%s: invalid json %q: %v", c.ID, b, err)
		}
		return ev
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting %s", c.ID)
	}
	return Event{}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	c1 := &Client{Send: make(chan []byte, 1)}
	c2 := &Client{Send: make(chan []byte, 1)}
	h.Register(c1)
	h.Register(c2)

	h.Publish(Event{Action: "cadastro", Nome: "Ana", Message: "Cadastro de CLIENTE Ana"})

	for _, c := range []*Client{c1, c2} {
		if got := recv(t, c); got.Message != "Cadastro de CLIENTE Ana" || got.Nome != "Ana" {
			t.Fatalf("%s got %#v", c.ID, got)
		}
	}
}

func TestHub_ActionFilter(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	onlyDeletes := &Client{ID: "del", Send: make(chan []byte, 2), Actions: ParseActions(" Exclusão ")}
	all := &Client{ID: "all", Send: make(chan []byte, 2)}
	h.Register(onlyDeletes)
	h.Register(all)

	h.Publish(Event{Action: "cadastro", Message: "a"})
	h.Publish(Event{Action: "exclusão", Message: "b"})

	if got := recv(t, onlyDeletes); got.Message != "b" {
		t.Fatalf("filtered client got %#v", got)
	}
	if recv(t, all).Message != "a" || recv(t, all).Message != "b" {
		t.Fatalf("unfiltered client must get both events in order")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	slow := &Client{ID: "slow", Send: make(chan []byte)} // sem buffer: nunca aceita
	h.Register(slow)
	h.Publish(Event{Action: "edição", Message: "x"})

	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("slow client was not dropped")
	}
	if n := h.Len(); n != 0 {
		t.Fatalf("clients=%d want 0", n)
	}
}

func TestEventFromDelivery(t *testing.T) {
	ev := EventFromDelivery([]byte("Edição de CLIENTE Bia"), amqp.Table{
		"action":    "edição",
		"record_id": "r2",
		"nome":      "Bia",
		"status":    "DEFERIDO",
		"user":      "admin",
		"timestamp": "2026-03-10T12:00:00Z",
		"extra":     int32(5),
	})
	want := Event{
		Action: "edição", RecordID: "r2", Nome: "Bia", Status: "DEFERIDO",
		User: "admin", Timestamp: "2026-03-10T12:00:00Z", Message: "Edição de CLIENTE Bia",
	}
	if ev != want {
		t.Fatalf("got %#v want %#v", ev, want)
	}
	if EventFromDelivery([]byte("x"), nil).Action != "" {
		t.Fatal("nil headers must give empty fields")
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeWS_StreamsFilteredEvents(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(ServeWS(h, NewUpgrader(nil), slog.Default()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?actions=exclus%C3%A3o"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, h, 1)

	h.Publish(Event{Action: "cadastro", Nome: "Ana", Message: "Cadastro de CLIENTE Ana"})
	h.Publish(Event{Action: "exclusão", Nome: "Bia", Message: "Exclusão de CLIENTE Bia"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Action != "exclusão" || ev.Nome != "Bia" {
		t.Fatalf("got %+v", ev)
	}

	_ = conn.Close()
	waitClients(t, h, 0)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"http://painel.local"})
	cases := map[string]bool{
		"":                    true,
		"http://painel.local": true,
		"http://outro.local":  false,
	}
	for origin, want := range cases {
		r := httptest.NewRequest("GET", "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		if got := up.CheckOrigin(r); got != want {
			t.Errorf("origin %q: got %v want %v", origin, got, want)
		}
	}
}

// go test -race -run 'TestHub_RegisterAssignsID|TestServeWS_' ./internal/ws -count=1

func TestHub_RegisterAssignsID(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		c := &Client{Send: make(chan []byte, 1)}
		h.Register(c)
		if c.ID == "" || seen[c.ID] {
			t.Fatalf("client %d: id %q", i, c.ID)
		}
		seen[c.ID] = true
	}

	named := &Client{ID: "painel", Send: make(chan []byte, 1)}
	h.Register(named)
	if named.ID != "painel" {
		t.Fatalf("id overwritten: %q", named.ID)
	}
}

func TestServeWS_RepeatedConnections(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(ServeWS(h, NewUpgrader(nil), slog.Default()))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"

	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		waitClients(t, h, 1)
		_ = conn.Close()
		waitClients(t, h, 0)
	}
}

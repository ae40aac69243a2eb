package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	framesSent  atomic.Int64
	connections atomic.Int64

	upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	mu    sync.Mutex
	conns = map[*websocket.Conn]struct{}{}
)

var (
	firstNames = []string{"Amina", "Jonas", "Priya", "Kwame", "Lucia", "Mateo"}
	lastNames  = []string{"Yusuf", "Berg", "Nair", "Mensah", "Rossi", "Silva"}
	purposes   = []string{"Passport renewal", "ID card", "Birth certificate", "Driving licence", "Residence permit"}
	slots      = []string{"09:00", "09:30", "10:00", "11:15", "14:00", "15:45"}
)

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	interval := 5 * time.Second
	if v := os.Getenv("EMIT_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}

	// Push stream: one new_appointment frame per interval
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		officeID := r.URL.Query().Get("office_id")
		if officeID == "" {
			http.Error(w, "office_id is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed: %v", err)
			return
		}
		track(conn, true)
		defer track(conn, false)

		log.Printf("[office=%s] subscriber connected (%d open)", officeID, connections.Load())
		stream(conn, officeID, interval, r.URL.Query().Get("chaos") == "1")
		log.Printf("[office=%s] subscriber gone", officeID)
	})

	// Drop endpoint: closes every push connection to exercise degradation
	http.HandleFunc("/drop", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n := len(conns)
		for c := range conns {
			c.Close()
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"dropped": n})
	})

	// Stats endpoint
	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{
			"frames_sent": framesSent.Load(),
			"connections": connections.Load(),
		})
	})

	log.Printf("Mock push server starting on :%s", port)
	log.Printf("  GET  /ws?office_id=..  -> push stream, one frame every %s (chaos=1 mixes bad frames)", interval)
	log.Printf("  POST /drop             -> close all push connections")
	log.Printf("  GET  /stats            -> frame and connection counts")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func track(conn *websocket.Conn, open bool) {
	mu.Lock()
	defer mu.Unlock()
	if open {
		conns[conn] = struct{}{}
		connections.Add(1)
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		connections.Add(-1)
	}
	conn.Close()
}

func stream(conn *websocket.Conn, officeID string, interval time.Duration, chaos bool) {
	// Drain client frames so pongs and close frames are processed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	emit := time.NewTicker(interval)
	defer emit.Stop()
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-emit.C:
			frame := nextFrame(officeID, chaos)
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
			count := framesSent.Add(1)
			fmt.Printf("[#%d] office=%s %s\n", count, officeID, truncate(string(frame), 96))
		}
	}
}

func nextFrame(officeID string, chaos bool) []byte {
	if chaos {
		switch rand.Intn(6) {
		case 0:
			return []byte(`{"event":"new_appointment","data":`)
		case 1:
			return []byte(`{"event":"appointment_deleted","data":{}}`)
		}
	}

	status := "PENDING"
	if rand.Intn(4) == 0 {
		status = "APPROVED"
	}
	now := time.Now().UTC()
	frame, _ := json.Marshal(map[string]any{
		"event": "new_appointment",
		"data": map[string]any{
			"appointment": map[string]any{
				"id":               uuid.NewString(),
				"status":           status,
				"appointment_date": now.AddDate(0, 0, 1+rand.Intn(14)).Format("2006-01-02"),
				"time_slotted":     pick(slots),
				"purpose":          pick(purposes),
				"created_at":       now.Format(time.RFC3339),
				"office_id":        officeID,
			},
			"citizen": map[string]any{
				"firstname": pick(firstNames),
				"lastname":  pick(lastNames),
				"email":     "citizen@example.com",
			},
		},
	})
	return frame
}

func pick(options []string) string {
	return options[rand.Intn(len(options))]
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

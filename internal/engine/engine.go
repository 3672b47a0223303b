package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"sharkjson/internal/decode"
	"sharkjson/internal/export"
	"sharkjson/internal/flow"
	"sharkjson/internal/models"
	"sharkjson/internal/parser"
)

// paceEvery is how many packets are broadcast before the loader yields.
const paceEvery = 200

// Client represents a connected WebSocket client that receives packets.
type Client interface {
	SendMessage(msg models.WSMessage) error
}

// Config controls how records are decoded and how flows are kept.
type Config struct {
	Decode   decode.Options
	MaxFlows int
	FlowIdle time.Duration
	// Pace is the pause after every paceEvery packets. Zero disables pacing.
	Pace time.Duration
}

// DefaultConfig deduplicates repeated keys and paces like a live capture view.
func DefaultConfig() Config {
	return Config{
		Decode: decode.Options{Deduplicate: true, FastJSON: true},
		Pace:   5 * time.Millisecond,
	}
}

// Engine loads tshark exports and broadcasts assembled packets to clients.
type Engine struct {
	cfg     Config
	tracker *flow.Tracker

	mu      sync.Mutex
	clients map[Client]bool
	loading bool
	last    models.LoadStats
}

// New creates a new Engine.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		tracker: flow.NewTracker(cfg.MaxFlows, cfg.FlowIdle),
		clients: make(map[Client]bool),
	}
}

// ErrBusy is returned when a load is requested while another is running.
var ErrBusy = errors.New("an export is already loading")

// RegisterClient adds a client to receive packet broadcasts.
func (e *Engine) RegisterClient(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clients[c] = true
}

// UnregisterClient removes a client.
func (e *Engine) UnregisterClient(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.clients, c)
}

// Flows returns the flow table built from the most recent load.
func (e *Engine) Flows() []flow.Flow {
	return e.tracker.Flows()
}

// Stats returns the counters of the current or most recent load.
func (e *Engine) Stats() models.LoadStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// LoadFile opens an export on disk and loads it.
func (e *Engine) LoadFile(ctx context.Context, path string) (models.LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.LoadStats{}, fmt.Errorf("open export %q: %w", path, err)
	}
	defer f.Close()
	return e.LoadExport(ctx, path, f)
}

// LoadExport reads every record in r, assembles it and broadcasts it.
// A record that fails to decode or assemble is logged and counted, and the
// load carries on with the next one.
func (e *Engine) LoadExport(ctx context.Context, source string, r io.Reader) (models.LoadStats, error) {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return models.LoadStats{}, ErrBusy
	}
	e.loading = true
	stats := models.LoadStats{LoadID: uuid.NewString(), Source: source}
	e.last = stats
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	reader, err := export.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("load %s: %w", source, err)
	}

	e.tracker.Reset()
	e.broadcastJSON("load_started", stats)
	log.Printf("Loading %s (load %s)", source, stats.LoadID)

	var firstTS time.Time
	batch := 0
	for {
		if err := ctx.Err(); err != nil {
			return e.finish(stats), err
		}

		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return e.finish(stats), fmt.Errorf("load %s: %w", source, err)
		}
		stats.Records++

		pkt, err := parser.Parse(rec, e.cfg.Decode)
		if err != nil {
			stats.Rejected++
			log.Printf("Record %d of %s rejected: %v", stats.Records, source, err)
			e.setStats(stats)
			continue
		}
		stats.Packets++

		ts, tsErr := pkt.Summary.Time()
		if firstTS.IsZero() && tsErr == nil {
			firstTS = ts
		}

		info := parser.Info(pkt, firstTS)
		if tuple := parser.ExtractFlowTuple(pkt); tuple.Valid && tsErr == nil {
			info.FlowID = e.tracker.Track(tuple.Observation(pkt.Summary.Length, ts))
		}
		e.broadcastJSON("packet", info)
		e.setStats(stats)

		// Pace: yield every paceEvery packets so the client can breathe
		batch++
		if batch >= paceEvery && e.cfg.Pace > 0 {
			batch = 0
			time.Sleep(e.cfg.Pace)
		}
	}

	stats = e.finish(stats)
	log.Printf("Loaded %s: %d records, %d packets, %d rejected, %d flows",
		source, stats.Records, stats.Packets, stats.Rejected, e.tracker.Len())
	return stats, nil
}

func (e *Engine) setStats(stats models.LoadStats) {
	e.mu.Lock()
	e.last = stats
	e.mu.Unlock()
}

func (e *Engine) finish(stats models.LoadStats) models.LoadStats {
	stats.Finished = true
	e.setStats(stats)
	e.broadcastJSON("load_finished", stats)
	return stats
}

func (e *Engine) broadcastJSON(msgType string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Marshal %s: %v", msgType, err)
		return
	}
	e.broadcast(models.WSMessage{Type: msgType, Payload: payload})
}

func (e *Engine) broadcast(msg models.WSMessage) {
	e.mu.Lock()
	clients := make([]Client, 0, len(e.clients))
	for c := range e.clients {
		clients = append(clients, c)
	}
	e.mu.Unlock()

	for _, c := range clients {
		c.SendMessage(msg)
	}
}

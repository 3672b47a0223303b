package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"sharkjson/internal/engine"
	"sharkjson/internal/export"
)

const (
	maxUploadSize = 100 << 20 // 100 MB
	sniffSize     = 512
)

// Options controls which routes are exposed.
type Options struct {
	// AllowLoadFile lets WebSocket clients load exports by server-side path.
	AllowLoadFile bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, eng *engine.Engine, opts Options) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", HandleWebSocket(eng, opts))

	// tshark JSON export upload
	mux.HandleFunc("/api/upload", handleUpload(eng))

	mux.HandleFunc("/api/flows", handleJSON(func() any { return eng.Flows() }))
	mux.HandleFunc("/api/stats", handleJSON(func() any { return eng.Stats() }))
}

func handleUpload(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "File too large (max 100MB)", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		br := bufio.NewReaderSize(file, 64*1024)
		head, _ := br.Peek(sniffSize)
		if !export.IsJSONExport(head) {
			http.Error(w, "Not a tshark JSON export", http.StatusUnsupportedMediaType)
			return
		}

		stats, err := eng.LoadExport(r.Context(), header.Filename, br)
		if errors.Is(err, engine.ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "Failed to read export: "+err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, stats)
	}
}

func handleJSON(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "GET only", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, get())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Write response: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"sharkjson/internal/engine"
	"sharkjson/internal/handlers"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dedup := flag.Bool("dedup", true, "keep repeated JSON keys (needed for tshark < 2.6 exports)")
	fastJSON := flag.Bool("fast-json", true, "use the fast JSON decoder when -dedup is off")
	file := flag.String("file", "", "tshark -T json export to load at startup")
	allowLoad := flag.Bool("allow-load", false, "let clients load exports by server-side path")
	flag.Parse()

	cfg := engine.DefaultConfig()
	cfg.Decode.Deduplicate = *dedup
	cfg.Decode.FastJSON = *fastJSON
	eng := engine.New(cfg)

	if *file != "" {
		stats, err := eng.LoadFile(context.Background(), *file)
		if err != nil {
			log.Fatalf("Load %s: %v", *file, err)
		}
		log.Printf("Loaded %d packets from %s", stats.Packets, *file)
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, eng, handlers.Options{AllowLoadFile: *allowLoad})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("sharkjson listening on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/dkrasnovs/fieldsync/internal/logging"
	"github.com/dkrasnovs/fieldsync/internal/server"
)

func main() {

	addr := flag.String("addr", ":8080", "listen address")
	token := flag.String("token", "", "bearer token required from clients (empty disables auth)")
	flag.Parse()

	srv := server.New(server.NewMemoryStore(), *token, logging.NewDefault())

	log.Printf("sync service listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("%v", err)
	}

}

// Command stub runs the in-memory DataGPT stub backend standalone, for
// pointing a separately-started client at it.
package main

import (
	"log"
	"time"

	"datagpt-client/internal/config"
	"datagpt-client/internal/stubserver"
)

func main() {
	cfg := config.Load()

	srv := stubserver.New(stubserver.Options{
		JwtSecret: cfg.Stub.JwtSecret,
		Users: []stubserver.SeedUser{{
			Email:    cfg.Stub.SeedEmail,
			Password: cfg.Stub.SeedPassword,
			Name:     cfg.Stub.SeedName,
			AppValid: true,
			Expiry:   time.Now().AddDate(0, 0, cfg.Stub.SubDays),
		}},
	})

	log.Printf("stub backend listening on :%s", cfg.Stub.Port)
	log.Fatal(srv.Listen(":" + cfg.Stub.Port))
}

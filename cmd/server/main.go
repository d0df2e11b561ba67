package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/db"
	"github.com/vardanian/whisperapi/internal/routes"
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Printf("Whisper API starting in %s mode", cfg.Env)

	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Println("Redis not configured: replay guard and transcript cache disabled")
	}

	router := routes.Setup(cfg, database, redisClient)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Server starting on %s", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, router))
}

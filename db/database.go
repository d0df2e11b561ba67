package db

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// InitDB инициализирует соединение с базой данных и создает таблицы.
func InitDB(dsn string) *sql.DB {
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if err = database.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	createTables(database)
	log.Println("Database initialized")
	return database
}

func createTables(database *sql.DB) {
	schema, err := os.ReadFile("db/schema.sql")
	if err != nil {
		log.Fatalf("Failed to read schema file: %v", err)
	}

	if _, err = database.Exec(string(schema)); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
}

package main

import (
	"os"

	"github.com/joho/godotenv"
)

const defaultMigrationsDir = "db/migrations"

// envFiles are loaded in order; earlier files and the real environment win.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles() {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
}

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return defaultMigrationsDir
}

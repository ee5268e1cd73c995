package main

import (
	"github.com/joho/godotenv"

	"bondwatch/internal/cli"
)

func main() {
	// .env is optional; real deployments pass env vars directly.
	_ = godotenv.Load()

	cli.Execute()
}

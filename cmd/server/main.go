// Package main implements the entry point for the task API server,
// which handles users' tasks, task sharing, and deadline reminders.
package main

import (
	"log"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

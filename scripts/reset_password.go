package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/config"
	"github.com/linesmerrill/relief-portal-api/databases"
)

// Resets the password of a portal account, e.g. an officer that lost theirs.
// Usage: go run scripts/reset_password.go <email> <new-password>
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/reset_password.go <email> <new-password>")
		fmt.Println("Example: go run scripts/reset_password.go uno_sylhet_sunamganj@uno.gov.bd 0i2rinbcp12yc31h")
		os.Exit(1)
	}
	email, password := os.Args[1], os.Args[2]

	conf := config.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := databases.NewClient(ctx, conf)
	if err != nil {
		zap.S().Fatalw("failed to create database client", "error", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	users := databases.NewUserDatabase(databases.NewDatabase(conf, client))
	if err := databases.ResetPassword(ctx, users, email, password); err != nil {
		fmt.Printf("Error resetting password for %s: %v\n", email, err)
		os.Exit(1)
	}
	fmt.Printf("Password for %s has been reset\n", email)
}

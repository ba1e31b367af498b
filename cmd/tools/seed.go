// Seeds demo identities and room memberships into BadgerDB and prints a
// signed token per user, so a local gateway can be exercised without the
// application's auth endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"nexus-gateway/auth"
	"nexus-gateway/domain"
	"nexus-gateway/repositories"
)

type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	TokenLifetime  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

type seedUser struct {
	user  domain.User
	rooms []string
}

var seedUsers = []seedUser{
	{domain.User{ID: "u1", Name: "Alice", Role: "admin", Active: true}, []string{"general", "apollo"}},
	{domain.User{ID: "u2", Name: "Bob", Role: "member", Active: true}, []string{"general", "apollo"}},
	{domain.User{ID: "u3", Name: "Clara", Role: "member", Active: true}, []string{"general"}},
	{domain.User{ID: "u4", Name: "Dave", Role: "member", Active: false}, nil},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	users := repositories.NewUserRepository(db)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Role", "Active", "Rooms", "Token"})

	for _, seed := range seedUsers {
		if err := users.CreateUser(ctx, seed.user); err != nil {
			return err
		}
		for _, roomID := range seed.rooms {
			if err := users.AddRoomMember(ctx, roomID, seed.user.ID); err != nil {
				return err
			}
		}

		token, err := auth.GenerateToken([]byte(config.JWTSecret), seed.user.ID, config.TokenLifetime)
		if err != nil {
			return err
		}
		table.Append([]string{
			seed.user.ID,
			seed.user.Name,
			seed.user.Role,
			fmt.Sprintf("%t", seed.user.Active),
			strings.Join(seed.rooms, ","),
			token,
		})
	}

	table.Render()
	return nil
}

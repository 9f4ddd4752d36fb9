package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"digital-store/cmd/bootstrap"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// deps is the slice of the server graph the CLI talks to.
type deps struct {
	Admin   commands.AdminCommands
	Users   commands.UserCommands
	Queries queries.OrderQueries
}

// withApp starts the same fx graph as the server minus HTTP and workers,
// runs fn and stops the graph again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, d deps) error) error {
	var d deps
	app := fx.New(
		bootstrap.CoreModule,
		fx.Populate(&d.Admin, &d.Users, &d.Queries),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	return fn(ctx, d)
}

func parseOrderID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order id %q: %w", arg, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

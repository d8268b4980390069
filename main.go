package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ClipFinance/swapbox/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; SWAPBOX_* variables may come from the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ehanapbuhay/employer-panel/internal/cli"
)

func main() {
	if err := cli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "usage: employer-panel setup --seed-password <password> [--seed-email employer@example.com] [--force]")
			fmt.Fprintln(os.Stderr, "       employer-panel run panel|sandbox|all")
			fmt.Fprintln(os.Stderr, "       employer-panel jobs list|status|import")
			fmt.Fprintln(os.Stderr, "       employer-panel applications list|status")
			fmt.Fprintln(os.Stderr, "       employer-panel reports export")
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

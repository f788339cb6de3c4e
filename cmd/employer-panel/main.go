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
			fmt.Fprintln(os.Stderr)
			_ = cli.BuildCLI().Usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

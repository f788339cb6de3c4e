// Command client serves only the employer panel; flags are those of
// "employer-panel run panel".
package main

import (
	"errors"
	"log"
	"os"

	"github.com/ehanapbuhay/employer-panel/internal/cli"
)

func main() {
	args := append([]string{"run", "panel"}, os.Args[1:]...)
	if err := cli.Execute(args); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			log.Printf("usage: client [-c config.yaml] [--env-file .env]: %v", err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

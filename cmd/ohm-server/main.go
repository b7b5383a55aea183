// Command ohm-server runs only the local HTTP API. Configuration comes from
// the environment (PORT, OHM_*) or the config file.
package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/existflow/ohm/internal/cli"
)

func main() {
	args := append([]string{"serve"}, os.Args[1:]...)
	if err := cli.Execute(args...); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

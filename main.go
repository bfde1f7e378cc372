// sqlagent turns natural-language questions into SQL using a hosted
// assistant that knows the database schema.
//
// Entry point: initializes the Cobra root command. With no subcommand
// the terminal chat client starts.
package main

import (
	"os"

	"github.com/DachengChen/sqlagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

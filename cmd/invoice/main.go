// Command invoice cotiza facturas en criptomonedas, las emite en PDF y resuelve ratios
// desde la terminal, sin base de datos.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&tablesCmd{},
	&pdfCmd{},
	&ratesCmd{},
	&tokenCmd{},
}

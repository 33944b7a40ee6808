package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/jhoicas/cripto-factura/pkg/jwt"
)

type tokenCmd struct {
	env
	user string
	role string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "genera un JWT para la API" }
func (*tokenCmd) Usage() string {
	return `invoice token [-user <id>] [-role emisor|lector]

  Firma un token con JWT_SECRET para llamar a /api. Sin -user usa un UUID nuevo.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "ID de usuario (sub)")
	f.StringVar(&c.role, "role", jwt.RoleIssuer, "Rol: emisor o lector")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.init(); err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}
	if c.cfg.JWT.Secret == "" {
		fail(fmt.Errorf("JWT_SECRET no configurado"))
		return subcommands.ExitUsageError
	}
	if c.role != jwt.RoleIssuer && c.role != jwt.RoleViewer {
		fail(fmt.Errorf("rol desconocido %q", c.role))
		return subcommands.ExitUsageError
	}
	if c.user == "" {
		c.user = uuid.New().String()
	}
	tok, err := jwt.Generate(c.cfg.JWT.Secret, c.user, c.role, c.cfg.JWT.Issuer, c.cfg.JWT.Expiration)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println(tok)
	return subcommands.ExitSuccess
}

package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jhoicas/cripto-factura/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration una migración "up" embebida (NNN_nombre.up.sql).
type Migration struct {
	Version uint
	Name    string
	SQL     string
}

// Source fuente golang-migrate sobre los SQL embebidos.
func Source() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("fuente de migraciones: %w", err)
	}
	return src, nil
}

// Migrations lista las migraciones embebidas en orden de versión.
func Migrations() ([]Migration, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var out []Migration
	version, err := src.First()
	for err == nil {
		r, name, rerr := src.ReadUp(version)
		if rerr != nil {
			return nil, fmt.Errorf("leer migración %d: %w", version, rerr)
		}
		b, rerr := io.ReadAll(r)
		r.Close()
		if rerr != nil {
			return nil, fmt.Errorf("leer migración %d: %w", version, rerr)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(b)})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("recorrer migraciones: %w", err)
	}
	return out, nil
}

// Migrate aplica las migraciones pendientes con golang-migrate sobre una conexión del pool.
// Sin cambios pendientes no es error.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("migrate")

	src, err := Source()
	if err != nil {
		return err
	}
	// Cerrar db no cierra el pool.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("driver de migraciones: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("instancia de migraciones: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	m.Log = migrateLogger{log}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("sin migraciones nuevas")
			return nil
		}
		return fmt.Errorf("aplicar migraciones: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("versión de migraciones: %w", err)
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// migrateLogger adapta el logger de golang-migrate a zerolog (nivel debug).
type migrateLogger struct {
	log *logger.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool { return false }

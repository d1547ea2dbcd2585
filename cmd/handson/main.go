package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/provision"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(args)
	case "create-schema":
		err = runCreateSchema(ctx, args)
	case "create-table":
		err = runCreateTable(ctx, args)
	case "transfer":
		err = runTransfer(ctx, args)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("comando falhou")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "handson CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  handson migrate [--dir migrations] up|down|version")
	fmt.Fprintln(os.Stderr, "  handson create-schema --name \"Cliente X\"")
	fmt.Fprintln(os.Stderr, "  handson create-table --schema cliente_x --table \"Vendas 2024\"")
	fmt.Fprintln(os.Stderr, "  handson transfer --name \"Razão Social\"")
}

func dsn(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("defina %s", key)
	}
	return v, nil
}

func connect(ctx context.Context, key string) (*pgxpool.Pool, error) {
	url, err := dsn(key)
	if err != nil {
		return nil, err
	}
	return db.NewPool(ctx, url, db.PoolConfig{MaxConns: 2})
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dir := fs.String("dir", "migrations", "diretório com os arquivos de migração")
	if err := fs.Parse(args); err != nil {
		return err
	}
	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	url, err := dsn("DB_HANDSON_DSN")
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(*dir)
	if err != nil {
		return fmt.Errorf("resolver %s: %w", *dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), url)
	if err != nil {
		return fmt.Errorf("criar migrate: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info().Msg("nenhuma migração aplicada")
			return nil
		}
		if verr != nil {
			return verr
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versão atual")
		return nil
	default:
		return fmt.Errorf("ação %q não suportada", action)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info().Str("action", action).Msg("migração concluída")
	return nil
}

func runCreateSchema(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-schema", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "nome do schema")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("name é obrigatório")
	}

	pool, err := connect(ctx, "DB_HANDSON_DSN")
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := provision.NewService(provision.NewRepository(pool), log.Logger)
	schema, err := svc.CreateSchema(ctx, *name)
	if err != nil {
		return err
	}
	fmt.Println(schema)
	return nil
}

func runCreateTable(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-table", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		schema = fs.String("schema", "", "schema de destino")
		table  = fs.String("table", "", "nome da tabela")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schema == "" || *table == "" {
		return errors.New("schema e table são obrigatórios")
	}

	pool, err := connect(ctx, "DB_HANDSON_DSN")
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := provision.NewService(provision.NewRepository(pool), log.Logger)
	ref, err := svc.CreateTable(ctx, *schema, *table)
	if err != nil {
		return err
	}
	fmt.Println(ref.String())
	return nil
}

func runTransfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "razão social da empresa no clipping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("name é obrigatório")
	}

	handsOn, err := connect(ctx, "DB_HANDSON_DSN")
	if err != nil {
		return err
	}
	defer handsOn.Close()
	clippingDB, err := connect(ctx, "DB_CLIPPING_DSN")
	if err != nil {
		return err
	}
	defer clippingDB.Close()

	svc := clipping.NewService(clipping.NewRepository(clippingDB), company.NewRepository(handsOn), nil, log.Logger)
	id, err := svc.TransferCompany(ctx, *name)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(map[string]any{"company_id": id, "name": *name}, "", "  ")
	fmt.Println(string(out))
	return nil
}

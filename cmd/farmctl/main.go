package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/config"
	"github.com/gestaozabele/farmdesk/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	// comandos que não abrem o banco
	switch cmd {
	case "hash-password":
		if err := runHashPassword(os.Stdout, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao gerar hash")
		}
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	cfg, err := config.StoreFromEnv(os.LookupEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("configuração de banco inválida")
	}

	if cmd == "migrate" {
		if err := runMigrate(cfg); err != nil {
			log.Fatal().Err(err).Msg("falha ao migrar")
		}
		return
	}

	adapter, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível abrir o banco")
	}
	defer adapter.Close()

	switch cmd {
	case "create-user":
		err = runCreateUser(ctx, adapter, os.Stdout, args)
	case "farms":
		err = runFarms(ctx, adapter, os.Stdout)
	case "farm":
		err = runFarm(ctx, adapter, os.Stdout, args)
	case "stats":
		err = runStats(ctx, adapter, os.Stdout)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("comando falhou")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "farmctl: administração do farmdesk")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  farmctl migrate")
	fmt.Fprintln(os.Stderr, "  farmctl create-user --email ana@wpd.fr --password segredo [--role admin] [--id uuid] [--hash=false]")
	fmt.Fprintln(os.Stderr, "  farmctl hash-password <senha>")
	fmt.Fprintln(os.Stderr, "  farmctl farms")
	fmt.Fprintln(os.Stderr, "  farmctl farm <código>")
	fmt.Fprintln(os.Stderr, "  farmctl stats")
	fmt.Fprintln(os.Stderr, "variáveis: DB_TYPE (sqlite|supabase), DB_PATH, DB_DSN")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/farmdesk/internal/auth"
	"github.com/gestaozabele/farmdesk/internal/db"
	"github.com/gestaozabele/farmdesk/internal/farmdata"
	"github.com/gestaozabele/farmdesk/internal/repo"
	"github.com/gestaozabele/farmdesk/internal/store"
	"github.com/gestaozabele/farmdesk/internal/util"
)

func runMigrate(cfg store.Config) error {
	var (
		version uint
		err     error
	)
	switch cfg.Kind {
	case store.KindSupabase:
		version, err = db.MigratePostgres(cfg.PostgresDSN)
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("criar diretório do banco: %w", err)
			}
		}
		version, err = db.MigrateSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return err
	}
	log.Info().Str("kind", string(cfg.Kind)).Uint("version", version).Msg("migrações aplicadas")
	return nil
}

func runHashPassword(out io.Writer, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("uso: farmctl hash-password <senha>")
	}
	hash, err := auth.Hash(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

func runCreateUser(ctx context.Context, adapter store.Adapter, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email    = fs.String("email", "", "email de login")
		password = fs.String("password", "", "senha inicial")
		role     = fs.String("role", string(auth.DefaultRole), "viewer, user ou admin")
		id       = fs.String("id", "", "id do perfil (no serviço hospedado, o id do usuário)")
		hash     = fs.Bool("hash", true, "grava a senha como hash argon2id")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := util.ValidateEmail(*email); err != nil {
		return err
	}
	if *password == "" && adapter.Kind() == store.KindSQLite {
		return errors.New("password é obrigatório no banco local")
	}
	r := auth.Role(strings.ToLower(strings.TrimSpace(*role)))
	if !r.Valid() {
		return fmt.Errorf("papel %q inválido", *role)
	}

	stored := *password
	if *hash && stored != "" {
		h, err := auth.Hash(stored)
		if err != nil {
			return err
		}
		stored = h
	}
	if strings.TrimSpace(*id) == "" {
		*id = util.NewID()
	}

	profile := map[string]any{"id": *id, "email": strings.TrimSpace(*email), "role": string(r)}
	if stored != "" {
		profile["password"] = stored
	}
	if _, err := adapter.Insert(ctx, repo.TableProfiles, profile); err != nil {
		return fmt.Errorf("criar perfil: %w", err)
	}

	fmt.Fprintf(out, "perfil criado: %s (%s, %s)\n", *id, *email, r)
	return nil
}

func runFarms(ctx context.Context, adapter store.Adapter, out io.Writer) error {
	farms, err := farmdata.New(adapter).GetAllFarms(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tPROJECT\tSPV\tUUID")
	for _, f := range farms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.String("code"), f.String("project"), f.String("spv"), f.String("uuid"))
	}
	return tw.Flush()
}

func runFarm(ctx context.Context, adapter store.Adapter, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: farmctl farm <código>")
	}

	facade := farmdata.New(adapter)
	farm, err := facade.GetFarmByCode(ctx, args[0])
	if err != nil {
		return err
	}
	if farm == nil {
		return fmt.Errorf("usina %s: %w", args[0], repo.ErrNotFound)
	}

	data, err := facade.GetAllFarmData(ctx, farm.String("uuid"))
	if err != nil {
		log.Warn().Err(err).Msg("dados parciais")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func runStats(ctx context.Context, adapter store.Adapter, out io.Writer) error {
	facade := farmdata.New(adapter)
	st := facade.Status(ctx)
	fmt.Fprintf(out, "backend: %s  conectado: %t  latência: %s\n", st.Kind, st.Connected, st.ResponseTime)

	stats, err := facade.TableStats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCOLUMNS\tROWS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.TableName, s.ColumnCount, s.RowCount)
	}
	return tw.Flush()
}

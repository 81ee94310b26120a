// Package main はカタログインポート用の CLI です。
//
//	catalogctl import -file packages.json
//	catalogctl status -job <jobId>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/jobs"
	"github.com/yourusername/travel-packages/internal/logger"
)

const usage = `usage:
  catalogctl import -file <packages.json>
  catalogctl status -job <jobId>`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "import":
		fs := flag.NewFlagSet("import", flag.ContinueOnError)
		file := fs.String("file", "", "path to a JSON array of packages")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *file == "" {
			return errors.New("-file is required")
		}
		pkgs, err := readPackagesFile(*file)
		if err != nil {
			return err
		}
		return withManager(func(m *jobs.Manager) error {
			jobID, err := m.EnqueueImport(ctx, pkgs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, jobID)
			return err
		})

	case "status":
		fs := flag.NewFlagSet("status", flag.ContinueOnError)
		jobID := fs.String("job", "", "job id printed by import")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *jobID == "" {
			return errors.New("-job is required")
		}
		return withManager(func(m *jobs.Manager) error {
			record, err := m.GetRecord(ctx, *jobID)
			if err != nil {
				return err
			}
			return printRecord(out, record)
		})

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// withManager は Redis と Asynq クライアントを用意して fn を実行します。
func withManager(fn func(m *jobs.Manager) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.QueueRedisURL == "" {
		return errors.New("QUEUE_REDIS_URL is required")
	}

	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return fmt.Errorf("parse QUEUE_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	m, err := jobs.NewManager(cfg, jobs.NewStore(rdb, cfg.JobTTL()), logger.New("catalogctl", cfg.LogLevel))
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func readPackagesFile(path string) ([]catalog.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPackages(f)
}

// readPackages は JSON 配列のパッケージ一覧を読み込みます。
// 未知のフィールドはタイプミスとして拒否します。
func readPackages(r io.Reader) ([]catalog.Package, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var pkgs []catalog.Package
	if err := dec.Decode(&pkgs); err != nil {
		return nil, fmt.Errorf("decode packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, errors.New("no packages in input")
	}
	for i, p := range pkgs {
		if p.Destination == "" || p.Name == "" {
			return nil, fmt.Errorf("package #%d: destination and name are required", i)
		}
	}
	return pkgs, nil
}

func printRecord(w io.Writer, record *jobs.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

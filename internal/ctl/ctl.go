package ctl

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/logging"
	"github.com/dmitrijs2005/bkjournal/internal/server/config"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bkjournal/internal/server/services"
)

const minSaltLength = 8

type exporter interface {
	Export(ctx context.Context) (string, int, error)
}

var (
	loadConfig  = config.LoadConfig
	openDB      = repomanager.OpenPostgres
	newExporter = func(db *sql.DB, cfg *config.Config, l logging.Logger) exporter {
		return services.NewBackupService(db, repomanager.NewPostgresRepositoryManager(), cfg, l)
	}
)

var errUsage = errors.New("usage: bkctl <keygen|derive-key -salt SALT|backup [server flags]>")

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	var err error
	switch args[0] {
	case "keygen":
		err = keygen(stdout)
	case "derive-key":
		err = deriveKey(args[1:], stdout, stderr)
	case "backup":
		err = backup(ctx, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, errUsage)
		return 0
	default:
		fmt.Fprintln(stderr, errUsage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func keygen(w io.Writer) error {
	key, err := common.MakeRandHexString(cryptox.KeySize)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, key)
	return err
}

func deriveKey(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("derive-key", flag.ContinueOnError)
	fs.SetOutput(stderr)
	salt := fs.String("salt", "", "salt, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*salt) < minSaltLength {
		return fmt.Errorf("salt must be at least %d characters", minSaltLength)
	}

	pw, err := GetPassphrase(stderr)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return errors.New("empty passphrase")
	}

	key := cryptox.DeriveKey(pw, []byte(*salt))
	defer common.WipeByteArray(key)

	_, err = fmt.Fprintln(stdout, hex.EncodeToString(key))
	return err
}

func backup(ctx context.Context, stdout, stderr io.Writer) error {
	cfg := loadConfig()
	logger := logging.NewJSONLogger(stderr, cfg.LogLevel)

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	key, n, err := newExporter(db, cfg, logger).Export(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "uploaded %d journals to s3://%s/%s\n", n, cfg.S3Bucket, key)
	return err
}

// Main is the bkctl entry point.
func Main() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

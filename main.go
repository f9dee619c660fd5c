package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/routes"
	"github.com/cppla/postboard/services"
	"github.com/cppla/postboard/utils"
)

const usage = "usage: postboard [serve | init-db | reset-db [-yes] | delete-user <username>]"

var errAborted = errors.New("aborted")

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	if err := run(cfg, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errAborted) {
			fmt.Fprintln(os.Stdout, "Aborted.")
			return
		}
		utils.Sugar.Fatalf("%v", err)
	}
}

func run(cfg config.AppConfig, args []string, in io.Reader, out io.Writer) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = strings.ToLower(strings.TrimSpace(args[0])), args[1:]
	}

	switch cmd {
	case "serve":
		return serve(cfg)
	case "init-db":
		db, err := config.InitDatabase(cfg, models.All()...)
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db)
		fmt.Fprintln(out, "Initialized the database.")
		return nil
	case "reset-db":
		fs := flag.NewFlagSet("reset-db", flag.ContinueOnError)
		fs.SetOutput(out)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if !*yes && !confirm(in, out, "This drops every table. Continue? [y/N] ") {
			return errAborted
		}
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db)
		if err := config.ResetDatabase(db, models.All()...); err != nil {
			return err
		}
		fmt.Fprintln(out, "Reset the database.")
		return nil
	case "delete-user":
		if len(args) != 1 {
			return errors.New(usage)
		}
		db, err := config.InitDatabase(cfg, models.All()...)
		if err != nil {
			return err
		}
		defer config.CloseDatabase(db)
		if err := services.NewUserService(db).Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted user %s.\n", args[0])
		return nil
	default:
		return errors.New(usage)
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func serve(cfg config.AppConfig) error {
	// Schema is created once before the listener opens.
	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db)

	cache, err := utils.NewCache(cfg)
	if err != nil {
		return err
	}
	if rc, ok := cache.(*utils.RedisCache); ok {
		defer rc.Close()
	}

	r := routes.SetupRouter(cfg, db, cache, utils.L())

	utils.L().Info("starting server", zap.String("port", cfg.AppPort))
	return utils.GraceServer(":"+cfg.AppPort, r, utils.L())
}

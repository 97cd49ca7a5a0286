package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/compliancebinder/internal/buildinfo"
	"github.com/dmitrijs2005/compliancebinder/internal/client/cli"
	"github.com/dmitrijs2005/compliancebinder/internal/client/config"
)

func main() {

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(buildinfo.String())
		return
	}

	cfg, args, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "binderctl:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewApp(cfg).Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "binderctl:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

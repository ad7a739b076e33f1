package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"lottawords/internal/store"
)

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	fetcher, mgr := buildFetcher(cfg)
	if mgr != nil {
		defer mgr.Shutdown(context.Background())
	}

	svc, err := newService(cfg, fetcher, store.NewMemoryStore())
	if err != nil {
		return err
	}
	defer svc.Close()

	data := svc.Refresh(ctx)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return err
	}
	if !data.OK() {
		return errors.New(data.Err())
	}
	return nil
}

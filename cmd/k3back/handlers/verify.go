package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/k3back/internal/upload"
)

// Verify handles the verify command.
//
// It lists the remote objects under prefix on every configured destination
// and prints what was found. The command fails only when every destination
// listing failed; partial reachability is reported but not fatal.
func Verify(ctx context.Context, configPath, prefix string, verbosity int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := newLogger(verbosity)

	var reachable int
	for _, dest := range cfg.Destinations {
		store, err := newStore(ctx, dest)
		if err != nil {
			fmt.Printf("Destination %s: FAILED (%v)\n", dest.Name, err)
			continue
		}

		engine := upload.NewEngine(log.WithValues("destination", dest.Name), store, 1)
		keys, err := engine.Verify(ctx, dest.Bucket, prefix)
		if err != nil {
			fmt.Printf("Destination %s: FAILED (%v)\n", dest.Name, err)
			continue
		}

		reachable++
		fmt.Printf("Destination %s: %d object(s) under %s\n", dest.Name, len(keys), prefix)
		for _, key := range keys {
			fmt.Printf("  s3://%s/%s\n", dest.Bucket, key)
		}
	}

	if reachable == 0 {
		return fmt.Errorf("verification failed on all %d destination(s)", len(cfg.Destinations))
	}
	return nil
}

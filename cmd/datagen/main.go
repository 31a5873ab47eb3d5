package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts        = flag.Int("accounts", cfg.NumAccounts, "number of demo accounts to generate")
		duplicateChance = flag.Float64("duplicate-chance", cfg.DuplicateChance, "probability of reusing an already generated email")
		password        = flag.String("password", cfg.Password, "password shared by every generated account")
		seed            = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output          = flag.String("output", "data/accounts.json", "file to write the accounts to")
		writeStdout     = flag.Bool("stdout", false, "write accounts to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAccounts:     *accounts,
		DuplicateChance: clampProbability(*duplicateChance),
		Password:        *password,
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	generated, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.EncodeAccounts(os.Stdout, generated); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write accounts to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteAccounts(generated, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write accounts: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d accounts into %s\n", len(generated), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

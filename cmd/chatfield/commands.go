package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/chatfield-dev/chatfield/driver"
	sessionredis "github.com/chatfield-dev/chatfield/session/redis"
	"github.com/chatfield-dev/chatfield/toolschema"
)

func buildRunCmd() *cobra.Command {
	var (
		collectionPath string
		model          string
		baseURL        string
		endpointSec    string
		threadID       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a conversation from a collection definition over stdin/stdout",
		Example: `  chatfield run --collection intake.yaml
  chatfield run --collection intake.yaml --model openai:gpt-4o --endpoint-security strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, runRunOpts{
				collectionPath: collectionPath,
				model:          model,
				baseURL:        baseURL,
				endpointSec:    endpointSec,
				threadID:       threadID,
			})
		},
	}

	cmd.Flags().StringVarP(&collectionPath, "collection", "c", "", "Path to a YAML collection definition (required)")
	cmd.Flags().StringVar(&model, "model", "", "Model id as \"openai:<model>\" (default: env CHATFIELD_MODEL, else driver default)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override the provider API endpoint (default: env CHATFIELD_BASE_URL)")
	cmd.Flags().StringVar(&endpointSec, "endpoint-security", "", "disabled|warn|strict (default: env CHATFIELD_ENDPOINT_SECURITY, else disabled)")
	cmd.Flags().StringVar(&threadID, "thread-id", "", "Resume an existing thread id instead of starting a fresh one")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func buildSchemaCmd() *cobra.Command {
	var collectionPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the update/conclude/confidential tool JSON schemas for a collection",
		Example: `  chatfield schema --collection intake.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, collectionPath)
		},
	}
	cmd.Flags().StringVarP(&collectionPath, "collection", "c", "", "Path to a YAML collection definition (required)")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

type runRunOpts struct {
	collectionPath string
	model          string
	baseURL        string
	endpointSec    string
	threadID       string
}

func runRun(cmd *cobra.Command, opts runRunOpts) error {
	ctx := cmd.Context()

	c, err := loadCollection(opts.collectionPath)
	if err != nil {
		return err
	}

	cfg := driver.Config{
		Interview:        c,
		ThreadID:         opts.threadID,
		Model:            firstNonEmpty(opts.model, os.Getenv("CHATFIELD_MODEL")),
		BaseURL:          firstNonEmpty(opts.baseURL, os.Getenv("CHATFIELD_BASE_URL")),
		EndpointSecurity: driver.EndpointSecurity(firstNonEmpty(opts.endpointSec, os.Getenv("CHATFIELD_ENDPOINT_SECURITY"))),
	}
	if redisURL := os.Getenv("CHATFIELD_REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("parse CHATFIELD_REDIS_URL: %w", err)
		}
		cfg.Store = sessionredis.New(redis.NewClient(redisOpts), 24*time.Hour)
	}

	d, err := driver.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start driver: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "thread: %s\n", d.ThreadID())

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	msg, err := d.Go(ctx, nil)
	if err != nil {
		return fmt.Errorf("go: %w", err)
	}
	fmt.Fprintf(out, "assistant: %s\n", msg)

	for !c.Done() {
		fmt.Fprint(out, "you: ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			break
		}

		msg, err = d.Go(ctx, &line)
		if err != nil {
			return fmt.Errorf("go: %w", err)
		}
		fmt.Fprintf(out, "assistant: %s\n", msg)
	}

	if err := d.End(ctx); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	fmt.Fprintln(out, "conversation ended.")
	return nil
}

func runSchema(cmd *cobra.Command, collectionPath string) error {
	c, err := loadCollection(collectionPath)
	if err != nil {
		return err
	}

	schemas := map[string]any{
		"update":   toolschema.GenerateUpdate(c),
		"conclude": toolschema.GenerateConclude(c),
	}
	if unfilled := c.UnfilledConfidential(); len(unfilled) > 0 {
		schemas["confidential"] = toolschema.GenerateConfidential(c, unfilled)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(schemas)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/batch"
	"github.com/relaygate/relaygate/internal/bootstrap"
	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/domain"
)

var (
	batchFile string
	batchAuth string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Work with batch operation files",
}

var batchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply a batch file against the configured store",
	Long: `Apply every operation in a batch file, in order, and print the batch result.

The file holds either a JSON array of operations or an object with an
"operations" array. The --auth value is resolved exactly as an Authorization
header sent to the server. With the memory storage driver the batch runs
against an empty store, which is useful for checking a file.

The command exits non-zero when any item failed or the batch was rejected.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := readBatchFile(batchFile)
		if err != nil {
			return err
		}
		return runBatch(cmd.Context(), cfg, log, data, batchAuth, cmd.OutOrStdout())
	},
}

func init() {
	batchRunCmd.Flags().StringVarP(&batchFile, "file", "f", "", "Batch file, - for stdin")
	batchRunCmd.Flags().StringVar(&batchAuth, "auth", "", "Authorization header value")
	_ = batchRunCmd.MarkFlagRequired("file")

	batchCmd.AddCommand(batchRunCmd)
}

func readBatchFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return data, nil
}

// decodeOperations accepts a bare operation array or {"operations": [...]}
func decodeOperations(data []byte) ([]domain.Operation, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ops []domain.Operation
		if err := json.Unmarshal(trimmed, &ops); err != nil {
			return nil, fmt.Errorf("invalid batch file: %w", err)
		}
		return ops, nil
	}

	var wrapped struct {
		Operations []domain.Operation `json:"operations"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid batch file: %w", err)
	}
	return wrapped.Operations, nil
}

func runBatch(ctx context.Context, cfg *config.Config, log *zap.Logger, data []byte, authorization string, out io.Writer) error {
	ops, err := decodeOperations(data)
	if err != nil {
		return err
	}

	principal, err := bootstrap.Resolver(cfg.Auth, nil, log).Resolve(ctx, authorization)
	if err != nil {
		return fmt.Errorf("authorization rejected: %w", err)
	}

	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	result := batch.NewProcessor(log).Process(ctx, ops, &domain.BatchContext{
		Principal: principal,
		Store:     store,
	})

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if !result.Success {
		if len(result.Errors) == 1 && result.Errors[0].Index == domain.BatchIndexRejected {
			return fmt.Errorf("batch rejected: %s", result.Errors[0].Message)
		}
		return fmt.Errorf("batch failed: %d of %d items failed", result.Stats.Failed, result.Stats.Total)
	}
	return nil
}

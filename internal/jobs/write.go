// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/asfstats/internal/catalog"
	"github.com/ManuGH/asfstats/internal/log"
)

// writeCSV writes the artifact atomically via renameio: temp file, fsync,
// rename. Readers never observe a partially written document.
func writeCSV(ctx context.Context, path string, stories []catalog.Story) error {
	logger := log.WithComponentFromContext(ctx, "jobs")

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending CSV file: %w", err)
	}
	defer func() {
		// Cleanup is a no-op once the file has been committed.
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending CSV file")
		}
	}()

	if err := catalog.WriteCSV(pendingFile, stories); err != nil {
		return fmt.Errorf("write CSV data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace CSV file: %w", err)
	}
	return nil
}

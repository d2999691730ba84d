// Package sink delivers finished research records to their destinations:
// local XLSX workbooks, an FTP drop, or a Notion database.
package sink

import (
	"context"

	"github.com/sells-group/property-research-cli/internal/model"
)

// Sink receives a terminal research record. Sinks fail independently; a
// delivery error is recorded on the run, never fatal to it.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec *model.ResearchRecord) error
}

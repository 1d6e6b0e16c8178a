package importing

import (
	"github.com/arcadekeep/arcadekeep/internal/capability"
)

// MassImportItemResult records the outcome of importing one logical item
// (one file in filename mode, one catalogue game in DAT mode). Mass import
// commits each item in its own transaction, so one item's failure never
// aborts the rest of the batch; Err is set exactly when that item failed.
type MassImportItemResult struct {
	SourcePath      string
	ReleaseName     string
	TitleName       string
	Skipped         bool
	ReleaseID       int64
	FileSetID       int64
	SoftwareTitleID int64
	Err             error
}

func sendProgress(ch *capability.ProgressChannel, ev capability.ProgressEvent) {
	if ch == nil {
		return
	}

	ch.Send(ev)
}

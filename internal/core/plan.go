package core

import (
	"fmt"
	"os"

	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/models"
)

// renameOp is one planned artifact rename. Both directions are guarded by
// existence checks, so executing or undoing over partial progress is safe.
type renameOp struct {
	src string
	dst string
}

// bumpPlan is the ordered list of file operations a bump performs outside
// the ledger files: artifact renames and the files it creates. The forward
// path executes it; rollback rebuilds the identical plan from the restored
// ledgers and the manifesto, and undoes it in reverse. Deriving both sides
// from one builder keeps the path construction from diverging.
type bumpPlan struct {
	target  models.Version
	renames []renameOp
	created []string
}

// buildBumpPlan derives the plan for releasing the given entries as the
// target version. Every ADD/CHANGE dataset gets both its single-file and
// its partitioned rename candidate; only the one whose source exists is
// acted on.
func buildBumpPlan(paths datastore.Paths, released []models.DataStructureUpdate, target models.Version, updateType models.UpdateType) bumpPlan {
	plan := bumpPlan{target: target}

	for _, u := range released {
		if u.Operation != models.OperationAdd && u.Operation != models.OperationChange {
			continue
		}
		plan.renames = append(plan.renames,
			renameOp{src: paths.DraftDataFile(u.Name), dst: paths.VersionedDataFile(u.Name, target)},
			renameOp{src: paths.DraftDataDir(u.Name), dst: paths.VersionedDataDir(u.Name, target)},
		)
	}

	plan.created = append(plan.created, paths.MetadataAllFile(target))
	// PATCH releases reuse the previous major.minor data manifest; only
	// MINOR and MAJOR create a new one.
	if updateType == models.UpdateMajor || updateType == models.UpdateMinor {
		plan.created = append(plan.created, paths.DataVersionsFile(target))
	}

	return plan
}

// execute performs the planned renames. A missing source means the rename
// already happened (or the dataset has the other artifact form) and is
// skipped.
func (p bumpPlan) execute() error {
	for _, r := range p.renames {
		if !fileExists(r.src) {
			continue
		}
		if err := os.Rename(r.src, r.dst); err != nil {
			return fmt.Errorf("rename %s: %w", r.src, err)
		}
	}
	return nil
}

// undo reverses the plan: created files are deleted and renames are undone,
// each step guarded so a rollback can be re-run over partial progress.
func (p bumpPlan) undo() error {
	for _, path := range p.created {
		if fileExists(path) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove %s: %w", path, err)
			}
		}
	}
	for i := len(p.renames) - 1; i >= 0; i-- {
		r := p.renames[i]
		if !fileExists(r.dst) || fileExists(r.src) {
			continue
		}
		if err := os.Rename(r.dst, r.src); err != nil {
			return fmt.Errorf("rename %s back: %w", r.dst, err)
		}
	}
	return nil
}

package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/utils"
)

const (
	RECONCILE_LOCK          = "reconcile"
	RECONCILE_LOCK_DURATION = 10 * time.Minute
)

var ErrReconcileLocked = errors.New("another reconciliation is running")

type ReconcileReport struct {
	Scanned    int                 `json:"scanned"`
	Referenced int                 `json:"referenced"`
	Skipped    int                 `json:"skipped"`
	Deleted    int                 `json:"deleted"`
	Orphans    []domain.StoredBlob `json:"orphans"`
}

// Reconciler finds blobs that no job record references. Blobs younger than
// minAge are left alone so an upload between store and persist is never
// mistaken for an orphan. Orphans are deleted only when delete is set.
type Reconciler struct {
	blobStore domain.BlobStoreInt
	jobsRepo  domain.JobRepositoryInt
	broker    domain.BrokerInt
	folder    string
	minAge    time.Duration
	delete    bool
	clock     func() time.Time
}

func NewReconciler(blobStore domain.BlobStoreInt, jobsRepo domain.JobRepositoryInt, broker domain.BrokerInt, folder string, minAge time.Duration, delete bool) *Reconciler {
	if folder == "" {
		folder = domain.DefaultFolder
	}
	return &Reconciler{
		blobStore: blobStore,
		jobsRepo:  jobsRepo,
		broker:    broker,
		folder:    folder,
		minAge:    minAge,
		delete:    delete,
		clock:     time.Now,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	log := utils.GetLogger()
	report := ReconcileReport{Orphans: []domain.StoredBlob{}}

	if r.broker != nil {
		if !r.broker.Lock(ctx, RECONCILE_LOCK, RECONCILE_LOCK_DURATION) {
			return report, ErrReconcileLocked
		}
		defer func() {
			if err := r.broker.UnLock(context.WithoutCancel(ctx), RECONCILE_LOCK); err != nil {
				log.Warnw("unable to release reconcile lock", "err", err)
			}
		}()
	}

	seen := map[string]bool{}
	var candidates []domain.StoredBlob

	// orphans the pipeline recorded itself: persist already failed, no grace period
	if r.broker != nil {
		ledger, err := r.broker.Orphans(ctx)
		if err != nil {
			log.Warnw("orphan ledger unavailable, sweeping only", "err", err)
		}
		for _, blob := range ledger {
			seen[blob.URL] = true
			referenced, err := r.jobsRepo.ExistsByFileURL(ctx, blob.URL)
			if err != nil {
				return report, domain.NewPersistenceError(err)
			}
			if referenced {
				report.Referenced++
				if err := r.broker.ClearOrphan(ctx, blob.URL); err != nil {
					log.Warnw("unable to clear orphan entry", "fileUrl", blob.URL, "err", err)
				}
				continue
			}
			candidates = append(candidates, blob)
		}
	}

	blobs, err := r.blobStore.List(ctx, r.folder)
	if err != nil {
		return report, errors.Wrap(err, "listing blob store")
	}
	report.Scanned = len(blobs)

	cutoff := r.clock().Add(-r.minAge)
	for _, blob := range blobs {
		if seen[blob.URL] {
			continue
		}
		seen[blob.URL] = true
		if blob.CreatedAt.IsZero() || blob.CreatedAt.After(cutoff) {
			report.Skipped++
			continue
		}
		referenced, err := r.jobsRepo.ExistsByFileURL(ctx, blob.URL)
		if err != nil {
			return report, domain.NewPersistenceError(err)
		}
		if referenced {
			report.Referenced++
			continue
		}
		candidates = append(candidates, blob)
	}

	var deleteErrs error
	for _, blob := range candidates {
		report.Orphans = append(report.Orphans, blob)
		if !r.delete {
			log.Infow("orphan blob found", "fileUrl", blob.URL, "key", blob.Key)
			continue
		}
		if err := r.blobStore.Delete(ctx, blob); err != nil {
			log.Errorw("unable to delete orphan blob", "fileUrl", blob.URL, "err", err)
			deleteErrs = errors.CombineErrors(deleteErrs, err)
			continue
		}
		report.Deleted++
		log.Infow("orphan blob deleted", "fileUrl", blob.URL, "key", blob.Key)
		if r.broker != nil {
			if err := r.broker.ClearOrphan(ctx, blob.URL); err != nil {
				log.Warnw("unable to clear orphan entry", "fileUrl", blob.URL, "err", err)
			}
		}
	}

	log.Infow("reconciliation done",
		"scanned", report.Scanned,
		"referenced", report.Referenced,
		"skipped", report.Skipped,
		"orphans", len(report.Orphans),
		"deleted", report.Deleted)

	return report, deleteErrs
}

// Start runs Reconcile on every tick of the cron schedule until ctx ends.
func (r *Reconciler) Start(ctx context.Context, schedule string) {
	log := utils.GetLogger()
	log.Infow("reconciler starting", "schedule", schedule, "folder", r.folder, "delete", r.delete)

	for {
		next := utils.CalculateNextExecution(schedule, r.clock())
		if next.IsZero() {
			log.Warnw("reconcile schedule has no future run", "schedule", schedule)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Infow("reconciler shutting down")
			return
		case <-timer.C:
		}

		if _, err := r.Reconcile(ctx); err != nil {
			if errors.Is(err, ErrReconcileLocked) {
				log.Infow("reconciliation skipped", "reason", err)
				continue
			}
			log.Errorw("reconciliation failed", "err", err)
		}
	}
}

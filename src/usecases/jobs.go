package usecases

import (
	"bytes"
	"context"

	"github.com/cockroachdb/errors"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/utils"
)

// Jobs is the upload pipeline: validate, store the blob, then persist the
// record. The store always completes before the persist begins.
type Jobs struct {
	blobStore domain.BlobStoreInt
	jobsRepo  domain.JobRepositoryInt
	broker    domain.BrokerInt
	folder    string
}

// NewJobs wires the pipeline. broker may be nil, in which case orphans are
// only logged and no activities are published.
func NewJobs(blobStore domain.BlobStoreInt, jobsRepo domain.JobRepositoryInt, broker domain.BrokerInt, folder string) *Jobs {
	if folder == "" {
		folder = domain.DefaultFolder
	}
	return &Jobs{
		blobStore: blobStore,
		jobsRepo:  jobsRepo,
		broker:    broker,
		folder:    folder,
	}
}

func (j *Jobs) CreateJob(ctx context.Context, sub domain.JobSubmission) (domain.JobRecord, error) {
	log := utils.GetLogger()

	if err := sub.Validate(); err != nil {
		log.Infow("job submission rejected", "err", err)
		return domain.JobRecord{}, err
	}

	blob, err := j.blobStore.Store(ctx, bytes.NewReader(sub.FileData), domain.StoreOptions{
		Folder:       j.folder,
		ResourceType: domain.ResourceTypeAuto,
		ContentType:  sub.FileType,
	})
	if err != nil {
		if !domain.IsUploadError(err) {
			err = domain.NewUploadError(err)
		}
		log.Errorw("blob upload failed", "title", sub.JobTitle, "size", len(sub.FileData), "err", err)
		return domain.JobRecord{}, err
	}

	job, err := domain.NewJobRecord(sub, blob.URL)
	if err != nil {
		// the validation cause is flattened so this stays a store fault only
		err = domain.NewUploadError(errors.Newf("blob store returned unusable url %q: %s", blob.URL, err.Error()))
		j.orphaned(ctx, blob, err)
		return domain.JobRecord{}, err
	}

	if _, err := j.jobsRepo.Create(ctx, job); err != nil {
		err = domain.NewPersistenceError(err)
		j.orphaned(ctx, blob, err)
		return domain.JobRecord{}, err
	}

	log.Infow("job created", "jobId", job.ID, "title", job.JobTitle, "fileUrl", job.FileURL, "fileType", job.FileType)
	j.notify(ctx, map[string]interface{}{
		"action":   domain.ActivityCreated,
		"jobId":    job.ID,
		"jobTitle": job.JobTitle,
		"fileUrl":  job.FileURL,
	})

	return job, nil
}

func (j *Jobs) Get(ctx context.Context, jobId string) (domain.JobRecord, error) {
	job, err := j.jobsRepo.Get(ctx, jobId)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return domain.JobRecord{}, err
		}
		return domain.JobRecord{}, domain.NewPersistenceError(err)
	}
	return job, nil
}

// orphaned records a blob that was stored but will never be referenced by a
// record. Nothing is deleted here; the reconciler owns cleanup.
func (j *Jobs) orphaned(ctx context.Context, blob domain.StoredBlob, cause error) {
	log := utils.GetLogger()
	log.Errorw("job not persisted, blob orphaned", "fileUrl", blob.URL, "key", blob.Key, "err", cause)

	if j.broker == nil {
		return
	}
	if err := j.broker.MarkOrphan(ctx, blob); err != nil {
		log.Warnw("unable to record orphan blob", "fileUrl", blob.URL, "err", err)
	}
	j.notify(ctx, map[string]interface{}{
		"action":  domain.ActivityOrphan,
		"fileUrl": blob.URL,
		"error":   cause.Error(),
	})
}

func (j *Jobs) notify(ctx context.Context, payload map[string]interface{}) {
	if j.broker == nil {
		return
	}
	if err := j.broker.Publish(ctx, domain.ACTIVITIES_CHANNEL, payload); err != nil {
		utils.GetLogger().Warnw("unable to publish activity", "action", payload["action"], "err", err)
	}
}

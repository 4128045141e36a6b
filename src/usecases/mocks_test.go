package usecases

import (
	"context"
	"io"
	"time"

	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/stretchr/testify/mock"
)

type mockBlobStore struct {
	mock.Mock
	received [][]byte
}

func (m *mockBlobStore) Store(ctx context.Context, body io.Reader, opts domain.StoreOptions) (domain.StoredBlob, error) {
	data, _ := io.ReadAll(body)
	m.received = append(m.received, data)
	args := m.Called(ctx, data, opts)
	return args.Get(0).(domain.StoredBlob), args.Error(1)
}

func (m *mockBlobStore) List(ctx context.Context, folder string) ([]domain.StoredBlob, error) {
	args := m.Called(ctx, folder)
	blobs, _ := args.Get(0).([]domain.StoredBlob)
	return blobs, args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, blob domain.StoredBlob) error {
	return m.Called(ctx, blob).Error(0)
}

type mockJobsRepo struct {
	mock.Mock
	created []domain.JobRecord
}

func (m *mockJobsRepo) Create(ctx context.Context, job domain.JobRecord) (string, error) {
	args := m.Called(ctx, job)
	if args.Error(1) == nil {
		m.created = append(m.created, job)
	}
	return args.String(0), args.Error(1)
}

func (m *mockJobsRepo) Get(ctx context.Context, jobId string) (domain.JobRecord, error) {
	args := m.Called(ctx, jobId)
	return args.Get(0).(domain.JobRecord), args.Error(1)
}

func (m *mockJobsRepo) SearchByTitle(ctx context.Context, query string) ([]domain.JobRecord, error) {
	args := m.Called(ctx, query)
	jobs, _ := args.Get(0).([]domain.JobRecord)
	return jobs, args.Error(1)
}

func (m *mockJobsRepo) ExistsByFileURL(ctx context.Context, fileURL string) (bool, error) {
	args := m.Called(ctx, fileURL)
	return args.Bool(0), args.Error(1)
}

func (m *mockJobsRepo) Close(ctx context.Context) {}

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) MarkOrphan(ctx context.Context, blob domain.StoredBlob) error {
	return m.Called(ctx, blob).Error(0)
}

func (m *mockBroker) Orphans(ctx context.Context) ([]domain.StoredBlob, error) {
	args := m.Called(ctx)
	blobs, _ := args.Get(0).([]domain.StoredBlob)
	return blobs, args.Error(1)
}

func (m *mockBroker) ClearOrphan(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *mockBroker) Lock(ctx context.Context, name string, lockDuration time.Duration) bool {
	return m.Called(ctx, name, lockDuration).Bool(0)
}

func (m *mockBroker) UnLock(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockBroker) Publish(ctx context.Context, channel string, payload map[string]interface{}) error {
	return m.Called(ctx, channel, payload).Error(0)
}

func (m *mockBroker) Close() {}

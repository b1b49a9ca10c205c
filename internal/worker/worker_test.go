package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/internal/job"
	"github.com/supplysight/ragapi/internal/rag"
	"github.com/supplysight/ragapi/internal/rag/vectorstore"
	"github.com/supplysight/ragapi/pkg/logx"
)

type mockRagService struct {
	ingested int32
	deleted  int32
}

func (m *mockRagService) Ask(ctx context.Context, params rag.AskParams) (rag.AskResult, error) {
	return rag.AskResult{}, nil
}
func (m *mockRagService) IngestDocument(ctx context.Context, documentID, filename, path string) (int, error) {
	atomic.AddInt32(&m.ingested, 1)
	return 3, nil
}
func (m *mockRagService) DeleteDocument(ctx context.Context, documentID string) error {
	atomic.AddInt32(&m.deleted, 1)
	return nil
}
func (m *mockRagService) GetDocument(ctx context.Context, documentID string) (vectorstore.DocumentInfo, bool, error) {
	return vectorstore.DocumentInfo{}, false, nil
}
func (m *mockRagService) ListDocuments(ctx context.Context, skip, limit int) ([]vectorstore.DocumentInfo, error) {
	return nil, nil
}

type mockJobStore struct {
	mu   sync.Mutex
	jobs map[string]jobModel.Job
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[string]jobModel.Job)}
}

func (m *mockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.Id] = j
	return nil
}
func (m *mockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobId]
	return j, ok
}
func (m *mockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func testConfig() config.Config {
	return config.Config{
		MinWorkerCount:    1,
		MaxWorkerCount:    3,
		IdleWorkerTimeout: 200 * time.Millisecond,
		RequestTimeout:    5 * time.Second,
	}
}

func TestWorkerPool_Flow(t *testing.T) {
	jobStore := newMockJobStore()
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
	})
	mockRag := &mockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockRag)
	InitWorkerPool(testConfig(), stopChan, wg)

	t.Run("DispatcherCreatesWorkerOnSignal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		time.Sleep(50 * time.Millisecond)

		if count := atomic.LoadInt64(&currentWorkerCount); count < 1 {
			t.Errorf("expected at least 1 worker, got %d", count)
		}
	})

	t.Run("WorkerProcessesIngestJob", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "doc.txt")
		if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}

		jobSvc.JobChannel <- jobModel.Job{
			Id:      "test-1",
			JobType: jobModel.JobTypeIngest,
			Payload: jobModel.JobPayload{DocumentID: "doc-1", DocumentName: "doc.txt", SourcePath: path},
		}
		time.Sleep(100 * time.Millisecond)

		if got := atomic.LoadInt32(&mockRag.ingested); got != 1 {
			t.Errorf("expected 1 ingested job, got %d", got)
		}
		saved, ok := jobStore.GetJob(context.Background(), "test-1")
		if !ok {
			t.Fatal("job state was not persisted")
		}
		if saved.Status != jobModel.JobStatusComplete {
			t.Errorf("job status = %q, want COMPLETE", saved.Status)
		}
		if saved.Payload.ChunkCount != 3 {
			t.Errorf("chunk count = %d, want 3", saved.Payload.ChunkCount)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("upload should be removed after ingestion")
		}
	})

	t.Run("WorkerProcessesDeleteJob", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{
			Id:      "test-2",
			JobType: jobModel.JobTypeDelete,
			Payload: jobModel.JobPayload{DocumentID: "doc-1"},
		}
		time.Sleep(100 * time.Millisecond)

		if got := atomic.LoadInt32(&mockRag.deleted); got != 1 {
			t.Errorf("expected 1 delete, got %d", got)
		}
	})

	t.Run("StopSignalRetiresWorkers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	atomic.StoreInt64(&maxWorkerCount, 3)
	idleWorkerTimeout = 100 * time.Millisecond
	logger = logx.New("worker_pool_test")

	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel: make(chan jobModel.Job),
	})
	InitServices(jobSvc, &mockRagService{})

	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stopWorkerChannel = make(chan bool)

	createWorker()
	time.Sleep(300 * time.Millisecond)

	if count := atomic.LoadInt64(&currentWorkerCount); count != 0 {
		t.Errorf("worker should have timed out and retired, count is %d", count)
	}
}

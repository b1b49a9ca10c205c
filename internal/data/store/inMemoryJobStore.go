package store

import (
	"context"
	"sync"

	"github.com/supplysight/ragapi/internal/domain/jobModel"
)

// InMemoryJobStore is the fallback when redis is unavailable at startup.
// Jobs do not survive a restart.
type InMemoryJobStore struct {
	mu     sync.RWMutex
	jobMap map[string]jobModel.Job
}

func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMap: make(map[string]jobModel.Job),
	}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobMap[job.Id] = job
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, found := s.jobMap[jobId]
	return job, found
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobMap, jobID)
}

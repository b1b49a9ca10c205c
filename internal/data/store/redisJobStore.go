package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/data/redisStore"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/pkg/logx"
)

type RedisJobStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logx.Logger
}

func NewRedisJobStore(s *redisStore.Store, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{
		store:  s,
		ttl:    ttl,
		logger: logx.New("job_store"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "jobId", job.Id)

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, job.Id, data, s.ttl); err != nil {
		log.Error("could not save job", "error", err)
		return err
	}
	log.Debug("saved job")
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "jobId", jobId)

	val, err := s.store.Get(ctx, jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("could not read job", "error", err)
		return job, false
	}

	if err := json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("could not decode job", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobID); err != nil {
		s.logger.Error("could not delete job", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("deleted job", "jobId", jobID)
}

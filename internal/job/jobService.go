package job

import (
	"github.com/supplysight/ragapi/internal/domain/jobModel"
)

// Service ties the job queue to its stores. The handlers enqueue onto
// JobChannel; the worker pool drains it. DispatcherChannel is the signal to
// scale the pool up.
type Service struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	ConversationStore jobModel.ConversationStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	ConversationStore jobModel.ConversationStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		ConversationStore: cfg.ConversationStore,
	}
}

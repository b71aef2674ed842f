package service

import (
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/repository"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of autosave workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the autosave queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps remembered Idempotency-Keys; 0 disables eviction.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithPolicy selects which entries count as filled scores.
func WithPolicy(p scoring.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithMaxImportBytes caps the size of imported documents.
func WithMaxImportBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxImportBytes = n
		}
	}
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Package service owns the live scoring sessions. Every edit bumps the
// session revision and hands a snapshot to the autosave pipeline; the store
// only ever accepts a snapshot newer than the one it holds.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/mq/queue"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/mq/worker"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/repository"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/dedupe"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	defaultQueueSize      = 1024
	defaultDedupeSize     = 10_000
	defaultMaxImportBytes = 1 << 20
)

// Service implements the operations behind the HTTP API.
type Service struct {
	// mu guards sessions and started.
	mu       sync.RWMutex
	sessions map[string]*model.Session
	started  bool

	// persistMu orders deletes against saves so a queued snapshot cannot
	// bring a deleted session back.
	persistMu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	policy         scoring.Policy
	workerCount    int
	queueSize      int
	dedupeSize     int
	maxImportBytes int64
	newID          func() string
	syncSaves      atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:       make(map[string]*model.Session),
		policy:         scoring.DefaultPolicy,
		workerCount:    defaultWorkerCount,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		maxImportBytes: defaultMaxImportBytes,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires the autosave pipeline. Workers outlive ctx cancellation so
// Stop can drain them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.SaverFunc(s.persist), worker.WithLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true

	metrics.UpdateStoreRecords(s.store.Count(ctx))
	s.logger.Info(ctx, "scoring service started",
		logger.String("policy", string(s.policy)),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize))
	return nil
}

// Stop drains pending autosaves and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping scoring service")
	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// CreateSession starts an empty session. A repeated non-empty key returns the
// session it created first; created reports whether a new one was made.
func (s *Service) CreateSession(ctx context.Context, key string) (*model.Session, bool, error) {
	return s.create(ctx, key, func(id string) *model.Session { return model.NewSession(id) }, metrics.RecordSessionCreated)
}

// ImportSession creates a session from a JSON document. Parse failures are
// *document.ParseError and never consume the key.
func (s *Service) ImportSession(ctx context.Context, key string, r io.Reader) (*model.Session, bool, error) {
	doc, err := s.decode(r)
	if err != nil {
		return nil, false, err
	}
	return s.create(ctx, key, doc.Session, metrics.RecordSessionImported)
}

func (s *Service) decode(r io.Reader) (*document.Document, error) {
	body, err := io.ReadAll(io.LimitReader(r, s.maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(body)) > s.maxImportBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImportTooLarge, s.maxImportBytes)
	}
	return document.Decode(bytes.NewReader(body))
}

func (s *Service) create(ctx context.Context, key string, build func(id string) *model.Session, record func()) (*model.Session, bool, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, false, ErrNotStarted
	}
	id := s.newID()
	if key != "" {
		if existing, seen := s.deduper.Claim(ctx, key, id); seen {
			sess, err := s.loadLocked(ctx, existing)
			if err == nil {
				s.mu.Unlock()
				metrics.RecordIdempotentReplay()
				return sess.Clone(), false, nil
			}
			if !errors.Is(err, ErrSessionNotFound) {
				s.mu.Unlock()
				return nil, false, err
			}
			// The session behind the key was deleted; bind the key afresh.
			s.deduper.Release(ctx, key)
			s.deduper.Claim(ctx, key, id)
		}
	}
	sess := build(id)
	s.sessions[id] = sess
	snap := model.NewSnapshot(sess)
	live := len(s.sessions)
	s.mu.Unlock()

	record()
	metrics.UpdateSessionsLive(live)
	s.autosave(ctx, snap)
	s.logger.Debug(ctx, "session created", logger.String("session_id", id))
	return snap.Session.Clone(), true, nil
}

// Session returns a copy of the session.
func (s *Service) Session(ctx context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	sess, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// ListSessions merges stored sessions with live ones not yet persisted,
// most recently updated first.
func (s *Service) ListSessions(ctx context.Context) ([]types.SessionInfo, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.SessionInfo, len(records))
	for _, r := range records {
		byID[r.ID] = types.SessionInfo{ID: r.ID, Revision: r.Revision, Student: r.Student, Department: r.Department, UpdatedAt: r.UpdatedAt}
	}
	s.mu.RLock()
	for id, sess := range s.sessions {
		if cur, ok := byID[id]; !ok || cur.Revision < sess.Revision {
			byID[id] = types.SessionInfo{
				ID: id, Revision: sess.Revision, Student: sess.Student.Name,
				Department: sess.Student.Department, UpdatedAt: sess.UpdatedAt,
			}
		}
	}
	s.mu.RUnlock()

	out := make([]types.SessionInfo, 0, len(byID))
	for _, info := range byID {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteSession removes a session from the cache and the store. s.mu is held
// until the store delete returns so no edit can reload the session from the
// store in between.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	_, live := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	err := s.store.Delete(ctx, id)
	s.mu.Unlock()

	switch {
	case errors.Is(err, repository.ErrNotFound) && !live:
		return ErrSessionNotFound
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}
	metrics.RecordSessionDeleted()
	metrics.UpdateSessionsLive(n)
	s.logger.Info(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

// UpdateStudent replaces the candidate details.
func (s *Service) UpdateStudent(ctx context.Context, id string, info model.StudentInfo) (*model.Session, error) {
	return s.mutate(ctx, id, func(sess *model.Session) error {
		sess.SetStudent(info)
		return nil
	})
}

// SetScore writes one item. rater and item are 0-based; score 0 clears it.
func (s *Service) SetScore(ctx context.Context, id string, rater int, sheet model.SheetID, item, score int) (*model.Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *model.Session) error {
		return sess.SetScore(rater, sheet, item, score)
	})
	if err == nil {
		metrics.RecordScoreEdit()
	}
	return sess, err
}

// FillSheet sets every item of a sheet to value.
func (s *Service) FillSheet(ctx context.Context, id string, rater int, sheet model.SheetID, value int) (*model.Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *model.Session) error {
		return sess.FillSheet(rater, sheet, value)
	})
	if err == nil {
		metrics.RecordBulkOperation("fill")
	}
	return sess, err
}

// ClearSheet resets every item of a sheet to unscored.
func (s *Service) ClearSheet(ctx context.Context, id string, rater int, sheet model.SheetID) (*model.Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *model.Session) error {
		return sess.ClearSheet(rater, sheet)
	})
	if err == nil {
		metrics.RecordBulkOperation("clear")
	}
	return sess, err
}

// ResetSession discards the student and every score.
func (s *Service) ResetSession(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *model.Session) error {
		sess.Reset()
		return nil
	})
	if err == nil {
		metrics.RecordBulkOperation("reset")
	}
	return sess, err
}

// Evaluate summarises a session under the configured policy.
func (s *Service) Evaluate(ctx context.Context, id string) (types.Summary, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return types.Summary{}, err
	}
	sum := s.summarize(sess)
	sum.SessionID = sess.ID
	sum.Revision = sess.Revision
	return sum, nil
}

// Calculate evaluates a document without creating a session.
func (s *Service) Calculate(_ context.Context, r io.Reader) (types.Summary, error) {
	doc, err := s.decode(r)
	if err != nil {
		return types.Summary{}, err
	}
	return s.summarize(doc.Session("")), nil
}

func (s *Service) summarize(sess *model.Session) types.Summary {
	ev := s.policy.Evaluate(sess)
	letter := ""
	if ev.Grade != nil {
		letter = ev.Grade.Letter
	}
	metrics.RecordEvaluation(letter, ev.FinalScore, ev.Complete)
	return types.NewSummary(ev)
}

// Export writes the session document to w and returns its download name.
func (s *Service) Export(ctx context.Context, id string, w io.Writer) (string, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return "", err
	}
	if err := document.Encode(w, sess); err != nil {
		return "", err
	}
	return document.Filename(sess.Student, time.Now()), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	st := types.Stats{
		Started:       s.started,
		Policy:        string(s.policy),
		WorkerCount:   s.workerCount,
		QueueCapacity: s.queueSize,
		DedupeSize:    s.dedupeSize,
		LiveSessions:  len(s.sessions),
	}
	started := s.started
	s.mu.RUnlock()
	if !started {
		return st
	}

	st.QueueLength = s.queue.Len(ctx)
	st.IdempotencyKeys = s.deduper.Size()
	st.StoredSessions = s.store.Count(ctx)
	ps := s.pool.Stats()
	st.Autosave = types.AutosaveStats{Saved: ps.Saved, Stale: ps.Stale, Failed: ps.Failed, Sync: s.syncSaves.Load()}

	metrics.UpdateStoreRecords(st.StoredSessions)
	metrics.UpdateSessionsLive(st.LiveSessions)
	return st
}

// mutate applies fn to the live session and schedules an autosave.
func (s *Service) mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	sess, err := s.loadLocked(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := fn(sess); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snap := model.NewSnapshot(sess)
	s.mu.Unlock()

	s.autosave(ctx, snap)
	return snap.Session.Clone(), nil
}

// loadLocked returns the live session, pulling it from the store on a cache
// miss. Caller holds s.mu for writing.
func (s *Service) loadLocked(ctx context.Context, id string) (*model.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.sessions[id] = sess
	metrics.UpdateSessionsLive(len(s.sessions))
	return sess, nil
}

// autosave queues snap, saving inline when the queue cannot take it.
func (s *Service) autosave(ctx context.Context, snap model.Snapshot) { //nolint:gocritic // hugeParam: snapshots travel by value
	err := s.queue.Enqueue(ctx, snap)
	if err == nil {
		return
	}
	s.syncSaves.Add(1)
	s.logger.Warn(ctx, "autosave queue unavailable, saving inline",
		logger.String("session_id", snap.SessionID),
		logger.Int64("revision", snap.Revision),
		logger.Error(err))
	if _, err := s.persist(context.WithoutCancel(ctx), snap.Session); err != nil {
		s.logger.Error(ctx, "inline autosave failed",
			logger.String("session_id", snap.SessionID),
			logger.Error(err))
	}
}

// persist is the worker Saver. Snapshots of deleted sessions are dropped.
func (s *Service) persist(ctx context.Context, sess *model.Session) (bool, error) {
	s.persistMu.RLock()
	defer s.persistMu.RUnlock()

	s.mu.RLock()
	_, live := s.sessions[sess.ID]
	s.mu.RUnlock()
	if !live {
		return false, nil
	}
	return s.store.SaveIfNewer(ctx, sess)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

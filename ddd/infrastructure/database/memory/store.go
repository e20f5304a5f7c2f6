package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
)

type outcomeRow struct {
	outcome      vo.ItemOutcome
	errorMessage string
}

// Store 内存存储, 用于本地调试与测试. 一把互斥锁覆盖所有数据, 与SQL实现的行锁语义一致
type Store struct {
	mu       sync.Mutex
	courses  map[string]*entity.Course
	batches  map[string]*entity.Batch
	outcomes map[string]map[string]outcomeRow // batchID -> itemKey
}

func NewStore() *Store {
	return &Store{
		courses:  make(map[string]*entity.Course),
		batches:  make(map[string]*entity.Batch),
		outcomes: make(map[string]map[string]outcomeRow),
	}
}

// Courses 课程仓储视图
func (s *Store) Courses() repo.CourseRepository { return &courseRepository{s: s} }

// Batches 批次仓储视图
func (s *Store) Batches() repo.BatchRepository { return &batchRepository{s: s} }

// OutcomeCount 已记录的回调条数, 测试使用
func (s *Store) OutcomeCount(batchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes[batchID])
}

type courseRepository struct {
	s *Store
}

func (r *courseRepository) FindByID(_ context.Context, courseID string) (*entity.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[courseID]
	if !ok {
		return nil, repo.ErrCourseNotFound
	}
	return c.Clone(), nil
}

func (r *courseRepository) Save(_ context.Context, course *entity.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.courses[course.ID()] = course.Clone()
	return nil
}

func (r *courseRepository) Import(_ context.Context, course *entity.Course) (*entity.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saved := course.Clone()
	saved.CarryOver(r.s.courses[course.ID()])
	r.s.courses[course.ID()] = saved
	return saved.Clone(), nil
}

func (r *courseRepository) CompareAndSetStatus(_ context.Context, courseID string, from, to vo.CourseStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[courseID]
	if !ok {
		return false, repo.ErrCourseNotFound
	}
	if c.Status() != from {
		return false, nil
	}
	if err := c.TransitionTo(to); err != nil {
		return false, err
	}
	return true, nil
}

func (r *courseRepository) FindMediaItem(_ context.Context, courseID, key string) (*entity.MediaItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.s.mediaItemLocked(courseID, key)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

func (r *courseRepository) SetPlayableURL(_ context.Context, courseID, key, playableURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.s.mediaItemLocked(courseID, key)
	if err != nil {
		return err
	}
	m.SetPlayableURL(playableURL)
	return nil
}

func (r *courseRepository) MergeCaptions(_ context.Context, courseID, key string, captions []vo.Caption) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.s.mediaItemLocked(courseID, key)
	if err != nil {
		return nil, err
	}
	return m.MergeCaptions(captions), nil
}

func (s *Store) mediaItemLocked(courseID, key string) (*entity.MediaItem, error) {
	c, ok := s.courses[courseID]
	if !ok {
		return nil, repo.ErrMediaItemNotFound
	}
	m := c.FindMediaItem(key)
	if m == nil {
		return nil, repo.ErrMediaItemNotFound
	}
	return m, nil
}

type batchRepository struct {
	s *Store
}

func (r *batchRepository) ReplaceAll(_ context.Context, courseID string, kind vo.PipelineKind, batches []*entity.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.batches {
		if b.CourseID() == courseID && b.Kind() == kind {
			delete(r.s.batches, id)
			delete(r.s.outcomes, id)
		}
	}
	for _, b := range batches {
		r.s.batches[b.ID()] = b.Clone()
	}
	return nil
}

func (r *batchRepository) FindByID(_ context.Context, batchID string) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[batchID]
	if !ok {
		return nil, repo.ErrBatchNotFound
	}
	return b.Clone(), nil
}

func (r *batchRepository) ListByCourse(_ context.Context, courseID string, kind vo.PipelineKind) ([]*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Batch, 0)
	for _, b := range r.s.listLocked(courseID, kind) {
		out = append(out, b.Clone())
	}
	return out, nil
}

func (s *Store) listLocked(courseID string, kind vo.PipelineKind) []*entity.Batch {
	var out []*entity.Batch
	for _, b := range s.batches {
		if b.CourseID() == courseID && b.Kind() == kind {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchNumber() < out[j].BatchNumber() })
	return out
}

func (r *batchRepository) OutcomeExists(_ context.Context, batchID, itemKey string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.outcomes[batchID][itemKey]
	return ok, nil
}

func (r *batchRepository) ClaimNextPending(_ context.Context, courseID string, kind vo.PipelineKind, now time.Time) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var next *entity.Batch
	for _, b := range r.s.listLocked(courseID, kind) {
		switch b.Status() {
		case vo.BatchStatusProcessing:
			return nil, repo.ErrBatchInFlight
		case vo.BatchStatusPending:
			if next == nil {
				next = b
			}
		}
	}
	if next == nil {
		return nil, repo.ErrNoMoreBatches
	}
	if err := next.Claim(now); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

func (r *batchRepository) MarkLaunched(_ context.Context, batchID string, now time.Time) (*entity.Batch, error) {
	return r.mutate(batchID, func(b *entity.Batch) error { return b.MarkLaunched(now) })
}

func (r *batchRepository) Release(_ context.Context, batchID, message string, now time.Time) (*entity.Batch, error) {
	return r.mutate(batchID, func(b *entity.Batch) error { return b.Release(message, now) })
}

func (r *batchRepository) Abandon(_ context.Context, batchID, message string, now time.Time) (*entity.Batch, error) {
	return r.mutate(batchID, func(b *entity.Batch) error { return b.Abandon(message, now) })
}

func (r *batchRepository) mutate(batchID string, fn func(b *entity.Batch) error) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[batchID]
	if !ok {
		return nil, repo.ErrBatchNotFound
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

func (r *batchRepository) RecordItemOutcome(_ context.Context, in repo.OutcomeInput) (*repo.OutcomeRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[in.BatchID]
	if !ok {
		return nil, repo.ErrBatchNotFound
	}
	if b.Status() != vo.BatchStatusProcessing {
		_, seen := r.s.outcomes[in.BatchID][in.ItemKey]
		return &repo.OutcomeRecord{Batch: b.Clone(), Duplicate: seen}, nil
	}
	rows := r.s.outcomes[in.BatchID]
	if rows == nil {
		rows = make(map[string]outcomeRow)
		r.s.outcomes[in.BatchID] = rows
	}
	if _, seen := rows[in.ItemKey]; seen {
		return &repo.OutcomeRecord{Batch: b.Clone(), Duplicate: true}, nil
	}
	justCompleted, err := b.RecordOutcome(in.Outcome, in.At)
	if err != nil {
		return &repo.OutcomeRecord{Batch: b.Clone()}, nil
	}
	rows[in.ItemKey] = outcomeRow{outcome: in.Outcome, errorMessage: in.ErrorMessage}
	return &repo.OutcomeRecord{Batch: b.Clone(), Counted: true, JustCompleted: justCompleted}, nil
}

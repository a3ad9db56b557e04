package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentroute/assessment-engine/internal/assess"
)

// CachedStore is a read-through redis cache over a Store. The catalog
// is read-mostly and eventually-consistent reads are acceptable, so
// cache failures fall through to SQL silently. Mutations invalidate
// the affected keys.
type CachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{Store: inner, rdb: rdb, ttl: ttl}
}

const (
	keyBelbinQuestions = "catalog:belbin:questions"
	keyNeoQuestions    = "catalog:neo:questions"
	keyGeneralExams    = "catalog:general:exams"
	keyGeneralExam     = "catalog:general:exam:" // + id
)

func cacheGet[T any](ctx context.Context, rdb *redis.Client, key string, out *T) bool {
	buf, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(buf, out) == nil
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) {
	buf, err := json.Marshal(v)
	if err != nil {
		return
	}
	rdb.Set(ctx, key, buf, ttl)
}

func (c *CachedStore) BelbinQuestions(ctx context.Context) ([]BelbinQuestion, error) {
	var qs []BelbinQuestion
	if cacheGet(ctx, c.rdb, keyBelbinQuestions, &qs) {
		return qs, nil
	}
	qs, err := c.Store.BelbinQuestions(ctx)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, c.rdb, keyBelbinQuestions, qs, c.ttl)
	return qs, nil
}

func (c *CachedStore) NeoQuestions(ctx context.Context) ([]NeoQuestion, error) {
	var qs []NeoQuestion
	if cacheGet(ctx, c.rdb, keyNeoQuestions, &qs) {
		return qs, nil
	}
	qs, err := c.Store.NeoQuestions(ctx)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, c.rdb, keyNeoQuestions, qs, c.ttl)
	return qs, nil
}

func (c *CachedStore) GeneralExams(ctx context.Context, mode assess.ExamMode) ([]GeneralExam, error) {
	if mode != "" {
		return c.Store.GeneralExams(ctx, mode)
	}
	var exams []GeneralExam
	if cacheGet(ctx, c.rdb, keyGeneralExams, &exams) {
		return exams, nil
	}
	exams, err := c.Store.GeneralExams(ctx, mode)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, c.rdb, keyGeneralExams, exams, c.ttl)
	return exams, nil
}

func (c *CachedStore) GeneralExam(ctx context.Context, id string) (GeneralExam, error) {
	var e GeneralExam
	if cacheGet(ctx, c.rdb, keyGeneralExam+id, &e) {
		return e, nil
	}
	e, err := c.Store.GeneralExam(ctx, id)
	if err != nil {
		return GeneralExam{}, err
	}
	cacheSet(ctx, c.rdb, keyGeneralExam+id, e, c.ttl)
	return e, nil
}

func (c *CachedStore) PutBelbinQuestion(ctx context.Context, q BelbinQuestion) (BelbinQuestion, error) {
	out, err := c.Store.PutBelbinQuestion(ctx, q)
	if err == nil {
		c.rdb.Del(ctx, keyBelbinQuestions)
	}
	return out, err
}

func (c *CachedStore) DeleteBelbinQuestion(ctx context.Context, id string) error {
	err := c.Store.DeleteBelbinQuestion(ctx, id)
	if err == nil {
		c.rdb.Del(ctx, keyBelbinQuestions)
	}
	return err
}

func (c *CachedStore) PutNeoQuestion(ctx context.Context, q NeoQuestion) (NeoQuestion, error) {
	out, err := c.Store.PutNeoQuestion(ctx, q)
	if err == nil {
		c.rdb.Del(ctx, keyNeoQuestions)
	}
	return out, err
}

func (c *CachedStore) DeleteNeoQuestion(ctx context.Context, id string) error {
	err := c.Store.DeleteNeoQuestion(ctx, id)
	if err == nil {
		c.rdb.Del(ctx, keyNeoQuestions)
	}
	return err
}

func (c *CachedStore) RelabelNeoLikert(ctx context.Context, labels map[string]string) error {
	err := c.Store.RelabelNeoLikert(ctx, labels)
	if err == nil {
		c.rdb.Del(ctx, keyNeoQuestions)
	}
	return err
}

func (c *CachedStore) PutGeneralExam(ctx context.Context, e GeneralExam) (GeneralExam, error) {
	out, err := c.Store.PutGeneralExam(ctx, e)
	if err == nil {
		c.rdb.Del(ctx, keyGeneralExams, keyGeneralExam+out.ID)
	}
	return out, err
}

func (c *CachedStore) PutGeneralQuestion(ctx context.Context, q GeneralQuestion) (GeneralQuestion, error) {
	out, err := c.Store.PutGeneralQuestion(ctx, q)
	if err == nil {
		c.rdb.Del(ctx, keyGeneralExams, keyGeneralExam+out.ExamID)
	}
	return out, err
}

func (c *CachedStore) DeleteGeneralQuestion(ctx context.Context, id string) error {
	q, err := c.Store.GeneralQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Store.DeleteGeneralQuestion(ctx, id); err != nil {
		return err
	}
	c.rdb.Del(ctx, keyGeneralExams, keyGeneralExam+q.ExamID)
	return nil
}

func (c *CachedStore) DeleteGeneralExam(ctx context.Context, id string) error {
	err := c.Store.DeleteGeneralExam(ctx, id)
	if err == nil {
		c.rdb.Del(ctx, keyGeneralExams, keyGeneralExam+id)
	}
	return err
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shitu-go/internal/model"
	"shitu-go/internal/repository"
	"shitu-go/internal/stats"
	"shitu-go/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func boolPtr(b bool) *bool { return &b }

var errStorage = errors.New("storage unavailable")

type fakeStatRepo struct {
	rows      []model.KnowledgeStat
	err       error
	lastLimit int
	applied   [][]stats.GradedResult
}

func (f *fakeStatRepo) ApplyBatch(_ context.Context, _ *gorm.DB, _ string, _ int, _ string, results []stats.GradedResult) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, results)
	return nil
}

func (f *fakeStatRepo) ListByAccuracy(_ context.Context, _ string, _ int, _ string, limit int) ([]model.KnowledgeStat, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeStatRepo) Get(context.Context, string, int, string, string) (*model.KnowledgeStat, error) {
	return nil, nil
}

type fakeQuestionRepo struct {
	analyses  map[string][]string
	lastLimit int
	byPaper   []model.Question
}

func (f *fakeQuestionRepo) CreateBatch(context.Context, *gorm.DB, []model.Question) error { return nil }

func (f *fakeQuestionRepo) Upsert(_ context.Context, _ *gorm.DB, q model.Question) (*model.Question, error) {
	return &q, nil
}

func (f *fakeQuestionRepo) List(context.Context, repository.QuestionFilter) ([]model.Question, error) {
	return nil, nil
}

func (f *fakeQuestionRepo) ListByPaper(context.Context, string, string) ([]model.Question, error) {
	return f.byPaper, nil
}

func (f *fakeQuestionRepo) RecentErrorAnalyses(_ context.Context, _ string, _ int, _, kp string, limit int) ([]string, error) {
	f.lastLimit = limit
	return f.analyses[kp], nil
}

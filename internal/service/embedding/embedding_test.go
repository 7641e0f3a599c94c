// Package embedding 提供嵌入服务单元测试
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/model"
)

// mockEmbedder Mock 嵌入器
// 以文本长度作为向量首元素，便于断言顺序；可选延迟用于暴露乱序写回
type mockEmbedder struct {
	mu        sync.Mutex
	delays    map[string]time.Duration
	failOn    string
	callCount int
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	out := make([][]float64, len(texts))
	for i, text := range texts {
		if m.failOn != "" && strings.Contains(text, m.failOn) {
			return nil, errors.New("embedding backend error")
		}
		if d, ok := m.delays[text]; ok {
			time.Sleep(d)
		}
		out[i] = []float64{float64(len(text)), 0.5, 0.25}
	}
	return out, nil
}

// mockKnowledgeRepo Mock 知识库 Repository
type mockKnowledgeRepo struct {
	entries        []*model.KnowledgeEntry
	embeddings     map[string]pgvector.Vector
	createError    error
	listError      error
	updateFailIDs  map[string]bool
	clearedCount   int64
	clearError     error
	clearCallCount int
}

func newMockKnowledgeRepo() *mockKnowledgeRepo {
	return &mockKnowledgeRepo{
		embeddings:    make(map[string]pgvector.Vector),
		updateFailIDs: make(map[string]bool),
	}
}

func (m *mockKnowledgeRepo) Create(entry *model.KnowledgeEntry) error {
	if m.createError != nil {
		return m.createError
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockKnowledgeRepo) GetByID(id string) (*model.KnowledgeEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockKnowledgeRepo) ListPending(limit int, ids []string) ([]*model.KnowledgeEntry, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	result := make([]*model.KnowledgeEntry, 0)
	for _, e := range m.entries {
		if e.Embedding != nil {
			continue
		}
		if len(ids) > 0 && !containsID(ids, e.ID) {
			continue
		}
		result = append(result, e)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *mockKnowledgeRepo) UpdateEmbedding(id string, vec pgvector.Vector) error {
	if m.updateFailIDs[id] {
		return errors.New("write failed")
	}
	m.embeddings[id] = vec
	for _, e := range m.entries {
		if e.ID == id {
			v := vec
			e.Embedding = &v
		}
	}
	return nil
}

func (m *mockKnowledgeRepo) ClearEmbeddings() (int64, error) {
	m.clearCallCount++
	if m.clearError != nil {
		return 0, m.clearError
	}
	cleared := m.clearedCount
	for _, e := range m.entries {
		if e.Embedding != nil {
			e.Embedding = nil
			cleared++
		}
	}
	return cleared, nil
}

func (m *mockKnowledgeRepo) SearchByVector(vec pgvector.Vector, countryCode, subdomain string, threshold float64, limit int) ([]*model.KnowledgeSnippet, error) {
	return nil, nil
}

func (m *mockKnowledgeRepo) SearchLexical(query, countryCode, subdomain string, limit int) ([]*model.KnowledgeSnippet, error) {
	return nil, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ========== 测试用例 ==========

func TestEmbedPreservesOrder(t *testing.T) {
	// 首条文本最长且放慢，若按完成顺序写回则结果错位
	embedder := &mockEmbedder{delays: map[string]time.Duration{
		"aaaaaaaaaa": 50 * time.Millisecond,
	}}
	svc := NewService(newMockKnowledgeRepo(), embedder)

	texts := []string{"aaaaaaaaaa", "bbb", "c"}
	vecs, err := svc.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}

	for i, text := range texts {
		if vecs[i][0] != float32(len(text)) {
			t.Errorf("vector %d leading element = %v, want %v (order violated)", i, vecs[i][0], len(text))
		}
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	svc := NewService(newMockKnowledgeRepo(), &mockEmbedder{})

	vecs, err := svc.Embed(context.Background(), []string{})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 0 {
		t.Errorf("got %d vectors, want 0", len(vecs))
	}
}

func TestEmbedBackendFailure(t *testing.T) {
	embedder := &mockEmbedder{failOn: "poison"}
	svc := NewService(newMockKnowledgeRepo(), embedder)

	_, err := svc.Embed(context.Background(), []string{"ok", "poison text"})
	if err == nil {
		t.Fatal("Embed() expected error, got nil")
	}
	if ae := apperr.From(err); ae.Kind != apperr.KindUpstream {
		t.Errorf("error kind = %v, want KindUpstream", ae.Kind)
	}
}

func TestEmbedWithoutEmbedder(t *testing.T) {
	svc := NewService(newMockKnowledgeRepo(), nil)

	_, err := svc.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("Embed() expected error when embedder not configured")
	}
	if ae := apperr.From(err); ae.Kind != apperr.KindUpstream {
		t.Errorf("error kind = %v, want KindUpstream", ae.Kind)
	}
}

func TestIndexPendingSkipsIndexed(t *testing.T) {
	repo := newMockKnowledgeRepo()
	indexed := pgvector.NewVector([]float32{1, 2, 3})
	repo.entries = []*model.KnowledgeEntry{
		{ID: "e1", Title: "TVA standard", Subdomain: "tva", Content: "..."},
		{ID: "e2", Title: "Déjà indexée", Subdomain: "tva", Content: "...", Embedding: &indexed},
		{ID: "e3", Title: "Amortissement", Subdomain: "compta", Content: "..."},
	}
	svc := NewService(repo, &mockEmbedder{})

	result, err := svc.IndexPending(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("IndexPending() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2 (indexed entry must be skipped)", result.Total)
	}
	if result.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", result.Indexed)
	}
	if _, ok := repo.embeddings["e2"]; ok {
		t.Error("already indexed entry should not be re-embedded")
	}
}

func TestIndexPendingScopedByIDs(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.entries = []*model.KnowledgeEntry{
		{ID: "e1", Title: "A", Subdomain: "tva"},
		{ID: "e2", Title: "B", Subdomain: "tva"},
		{ID: "e3", Title: "C", Subdomain: "is"},
	}
	svc := NewService(repo, &mockEmbedder{})

	result, err := svc.IndexPending(context.Background(), 10, []string{"e1", "e3"})
	if err != nil {
		t.Fatalf("IndexPending() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if _, ok := repo.embeddings["e2"]; ok {
		t.Error("entry outside id scope should not be indexed")
	}
}

func TestIndexPendingCountsPartialFailure(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.entries = []*model.KnowledgeEntry{
		{ID: "e1", Title: "A", Subdomain: "tva"},
		{ID: "e2", Title: "B", Subdomain: "tva"},
		{ID: "e3", Title: "C", Subdomain: "is"},
	}
	repo.updateFailIDs["e2"] = true
	svc := NewService(repo, &mockEmbedder{})

	result, err := svc.IndexPending(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("IndexPending() error = %v", err)
	}
	// 单条写回失败不终止批次
	if result.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", result.Indexed)
	}
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
}

func TestIndexPendingNothingToDo(t *testing.T) {
	repo := newMockKnowledgeRepo()
	embedder := &mockEmbedder{}
	svc := NewService(repo, embedder)

	result, err := svc.IndexPending(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("IndexPending() error = %v", err)
	}
	if result.Indexed != 0 || result.Total != 0 {
		t.Errorf("result = %+v, want zero", result)
	}
	if embedder.callCount != 0 {
		t.Error("embedder should not be called when nothing is pending")
	}
}

func TestReindexAll(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.clearedCount = 42
	svc := NewService(repo, &mockEmbedder{})

	cleared, err := svc.ReindexAll(context.Background())
	if err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if cleared != 42 {
		t.Errorf("cleared = %d, want 42", cleared)
	}
	if repo.clearCallCount != 1 {
		t.Errorf("ClearEmbeddings called %d times, want 1", repo.clearCallCount)
	}
}

func TestReindexAllPersistenceError(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.clearError = errors.New("database down")
	svc := NewService(repo, &mockEmbedder{})

	_, err := svc.ReindexAll(context.Background())
	if err == nil {
		t.Fatal("ReindexAll() expected error")
	}
	if ae := apperr.From(err); ae.Kind != apperr.KindPersistence {
		t.Errorf("error kind = %v, want KindPersistence", ae.Kind)
	}
}

func TestReindexThenIndexRepopulates(t *testing.T) {
	repo := newMockKnowledgeRepo()
	indexed := pgvector.NewVector([]float32{1, 2, 3})
	v2 := indexed
	repo.entries = []*model.KnowledgeEntry{
		{ID: "e1", Title: "A", Subdomain: "tva", Embedding: &indexed},
		{ID: "e2", Title: "B", Subdomain: "is", Embedding: &v2},
	}
	svc := NewService(repo, &mockEmbedder{})
	ctx := context.Background()

	cleared, err := svc.ReindexAll(ctx)
	if err != nil {
		t.Fatalf("ReindexAll() error = %v", err)
	}
	if cleared != 2 {
		t.Fatalf("cleared = %d, want 2", cleared)
	}

	// limit 小于语料量时分批补齐
	for i := 0; i < 2; i++ {
		if _, err := svc.IndexPending(ctx, 1, nil); err != nil {
			t.Fatalf("IndexPending() batch %d error = %v", i+1, err)
		}
	}

	for _, e := range repo.entries {
		if e.Embedding == nil {
			t.Errorf("entry %s not re-populated", e.ID)
		}
	}
}

func TestCompositeText(t *testing.T) {
	entry := &model.KnowledgeEntry{
		Subdomain: "tva",
		Title:     "Taux standard en Côte d'Ivoire",
		Content:   "Le taux standard de TVA est de 18%.",
	}

	got := CompositeText(entry)
	want := fmt.Sprintf("%s: %s\n%s", entry.Subdomain, entry.Title, entry.Content)
	if got != want {
		t.Errorf("CompositeText() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "tva: ") {
		t.Error("composite text must carry the subdomain prefix")
	}
}

func TestCreateEntry(t *testing.T) {
	repo := newMockKnowledgeRepo()
	svc := NewService(repo, &mockEmbedder{})
	ctx := context.Background()

	entry := &model.KnowledgeEntry{Title: "TVA CI", Content: "Taux standard 18%."}
	if err := svc.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	if entry.ID == "" {
		t.Error("CreateEntry must assign an ID")
	}
	if entry.Embedding != nil {
		t.Error("new entry must start unindexed")
	}
	if len(repo.entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(repo.entries))
	}

	// 必填字段缺失
	if err := svc.CreateEntry(ctx, &model.KnowledgeEntry{Title: "sans contenu"}); err == nil {
		t.Fatal("CreateEntry() expected error for missing content")
	} else if ae := apperr.From(err); ae.Kind != apperr.KindInvalid {
		t.Errorf("error kind = %v, want KindInvalid", ae.Kind)
	}
}

func TestCreateEntryPersistenceFailure(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.createError = errors.New("disk full")
	svc := NewService(repo, &mockEmbedder{})

	err := svc.CreateEntry(context.Background(), &model.KnowledgeEntry{Title: "t", Content: "c"})
	if err == nil {
		t.Fatal("CreateEntry() expected error")
	}
	if ae := apperr.From(err); ae.Kind != apperr.KindPersistence {
		t.Errorf("error kind = %v, want KindPersistence", ae.Kind)
	}
}

func TestGetEntry(t *testing.T) {
	repo := newMockKnowledgeRepo()
	repo.entries = []*model.KnowledgeEntry{{ID: "k1", Title: "TVA CI"}}
	svc := NewService(repo, &mockEmbedder{})
	ctx := context.Background()

	entry, err := svc.GetEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if entry.Title != "TVA CI" {
		t.Errorf("entry = %+v", entry)
	}

	_, err = svc.GetEntry(ctx, "missing")
	if err == nil {
		t.Fatal("GetEntry() expected error for unknown ID")
	}
	if ae := apperr.From(err); ae.Kind != apperr.KindNotFound {
		t.Errorf("error kind = %v, want KindNotFound", ae.Kind)
	}
}

package db

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ticket-rag/backend/internal/model"
)

// MemoryStore - 프로세스 내 brute-force 벡터 스토어 (테스트 및 --store=memory 용)
// Postgres 와 동일하게 cosine distance, ticket_id 오름차순 tie-break.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]model.TicketEmbedding
	now       func() time.Time
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		records:   make(map[string]model.TicketEmbedding),
		now:       time.Now,
	}
}

func (m *MemoryStore) UpsertEmbedding(_ context.Context, rec model.TicketEmbedding) error {
	if err := checkDimension(rec.Vector, m.dimension); err != nil {
		return err
	}
	rec.Vector = append([]float32(nil), rec.Vector...)
	rec.UpdatedAt = m.now()

	m.mu.Lock()
	m.records[rec.TicketID] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Nearest(_ context.Context, vector []float32, k int) ([]model.ScoredTicket, error) {
	if err := checkDimension(vector, m.dimension); err != nil {
		return nil, err
	}
	list := []model.ScoredTicket{}
	if k <= 0 {
		return list, nil
	}

	m.mu.RLock()
	for id, rec := range m.records {
		list = append(list, model.ScoredTicket{
			TicketID: id,
			Metadata: rec.Metadata,
			Distance: CosineDistance(vector, rec.Vector),
		})
	}
	m.mu.RUnlock()

	sortScored(list)
	if len(list) > k {
		list = list[:k]
	}
	return list, nil
}

func (m *MemoryStore) CountEmbeddings(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) ListEmbeddings(context.Context) ([]model.ScoredTicket, error) {
	m.mu.RLock()
	list := make([]model.ScoredTicket, 0, len(m.records))
	for id, rec := range m.records {
		list = append(list, model.ScoredTicket{TicketID: id, Metadata: rec.Metadata})
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].TicketID < list[j].TicketID })
	return list, nil
}

func (m *MemoryStore) GetEmbedding(_ context.Context, ticketID string) (*model.TicketEmbedding, error) {
	m.mu.RLock()
	rec, ok := m.records[ticketID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	rec.Vector = append([]float32(nil), rec.Vector...)
	return &rec, nil
}

func sortScored(list []model.ScoredTicket) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Distance != list[j].Distance {
			return list[i].Distance < list[j].Distance
		}
		return list[i].TicketID < list[j].TicketID
	})
}

// CosineDistance is 1 - cos(a, b). A zero-norm side yields 1 so empty
// queries rank everything equally instead of producing NaN.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	if d < 0 {
		return 0
	}
	return d
}

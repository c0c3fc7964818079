package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to
// the SQL backend.
type Service struct {
	meili    *Meili
	fallback *SQLSearch
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, fallback *SQLSearch) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise the SQL backend.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to sql: %v", err)
	}

	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: sql fallback error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexTask indexes a task (fire-and-forget to Meilisearch).
func (s *Service) IndexTask(t TaskRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTask(t); err != nil {
			log.Printf("search: index task %s: %v", t.ID, err)
		}
	}()
}

// DeleteTask removes a task from the search index (fire-and-forget).
func (s *Service) DeleteTask(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteTask(id); err != nil {
			log.Printf("search: delete task %s: %v", id, err)
		}
	}()
}

// IndexMaterial indexes a study material (fire-and-forget).
func (s *Service) IndexMaterial(rec MaterialRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexMaterial(rec); err != nil {
			log.Printf("search: index material %s: %v", rec.ID, err)
		}
	}()
}

// DeleteMaterial removes a material from the search index (fire-and-forget).
func (s *Service) DeleteMaterial(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteMaterial(id); err != nil {
			log.Printf("search: delete material %s: %v", id, err)
		}
	}()
}

// ReindexAllFromDB pushes every task and live material from Postgres
// into Meilisearch. Called during bootstrap if Meilisearch is healthy.
func (s *Service) ReindexAllFromDB(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.fallback == nil {
		return
	}
	taskRecords, materialRecords, err := s.fallback.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexTasks(taskRecords); err != nil {
		log.Printf("search: reindex tasks: %v", err)
	}
	if err := s.meili.IndexMaterials(materialRecords); err != nil {
		log.Printf("search: reindex materials: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}

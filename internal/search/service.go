package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDebate indexes a debate (fire-and-forget to Meilisearch).
func (s *Service) IndexDebate(d DebateRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexDebate(d); err != nil {
			log.Printf("search: index debate %s: %v", d.ID, err)
		}
	}()
}

// IndexInfoCard indexes an info card (fire-and-forget to Meilisearch).
func (s *Service) IndexInfoCard(c InfoCardRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexInfoCard(c); err != nil {
			log.Printf("search: index info card %s: %v", c.ID, err)
		}
	}()
}

// RemoveDebate removes a debate from the index.
func (s *Service) RemoveDebate(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteDebate(id); err != nil {
			log.Printf("search: remove debate %s: %v", id, err)
		}
	}()
}

// RemoveInfoCard removes an info card from the index.
func (s *Service) RemoveInfoCard(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteInfoCard(id); err != nil {
			log.Printf("search: remove info card %s: %v", id, err)
		}
	}()
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}

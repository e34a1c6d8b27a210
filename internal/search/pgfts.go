package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across debates and info cards using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultDebate {
		where := "d.fts @@ " + tsQuery
		if q.FilterProjectID != "" {
			where += fmt.Sprintf(" AND d.project_id = $%d", argN)
			args = append(args, q.FilterProjectID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'debate'::text AS type, d.id, d.title,
				ts_headline('english', coalesce(d.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				d.project_id, d.status,
				ts_rank(d.fts, %s) AS rank
			FROM debates d
			WHERE %s`, tsQuery, tsQuery, where))
	}

	if q.FilterType == "" || q.FilterType == ResultInfoCard {
		where := "c.fts @@ " + tsQuery
		if q.FilterProjectID != "" {
			where += fmt.Sprintf(" AND c.project_id = $%d", argN)
			args = append(args, q.FilterProjectID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'infoCard'::text AS type, c.id, c.title,
				ts_headline('english', coalesce(c.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.project_id, ''::text AS status,
				ts_rank(c.fts, %s) AS rank
			FROM info_cards c
			WHERE %s`, tsQuery, tsQuery, where))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, project_id, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.ProjectID, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

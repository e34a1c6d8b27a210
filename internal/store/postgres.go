package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Users

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) ListUsersByIDs(ctx context.Context, userIDs []string) ([]User, error) {
	if len(userIDs) == 0 {
		return []User{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = ANY($1)
		ORDER BY name ASC
	`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

// Projects

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var item Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_project_manager_id, created_at, updated_at
		FROM projects
		WHERE id=$1
	`, projectID).Scan(&item.ID, &item.Name, &item.OwnerProjectManagerID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

func (s *PostgresStore) IsProjectManager(ctx context.Context, userID, projectID string) (bool, error) {
	var isManager bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM project_managers WHERE user_id=$1 AND project_id=$2)
	`, userID, projectID).Scan(&isManager)
	if err != nil {
		return false, fmt.Errorf("check project manager: %w", err)
	}
	return isManager, nil
}

// Debates

func (s *PostgresStore) ListDebates(ctx context.Context, projectID, status string) ([]Debate, error) {
	query := `
		SELECT id, project_id, title, description, status, position, replies_total, creator_user_id, created_at, updated_at
		FROM debates
		WHERE project_id=$1
	`
	args := []any{projectID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY position ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debates: %w", err)
	}
	defer rows.Close()

	items := make([]Debate, 0)
	for rows.Next() {
		var item Debate
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Title, &item.Description, &item.Status,
			&item.Position, &item.RepliesTotal, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan debate: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debates: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDebate(ctx context.Context, debateID string) (Debate, error) {
	var item Debate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, description, status, position, replies_total, creator_user_id, created_at, updated_at
		FROM debates
		WHERE id=$1
	`, debateID).Scan(&item.ID, &item.ProjectID, &item.Title, &item.Description, &item.Status,
		&item.Position, &item.RepliesTotal, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Debate{}, err
	}
	return item, nil
}

// InsertDebate persists a new debate. When explicitPosition is nil the row is
// appended at the tail of the project's ordering; otherwise the supplied
// value is stored verbatim.
func (s *PostgresStore) InsertDebate(ctx context.Context, item Debate, explicitPosition *float64) (Debate, error) {
	pos, err := s.resolvePosition(ctx, tableDebates, item.ProjectID, explicitPosition)
	if err != nil {
		return Debate{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO debates (id, project_id, title, description, status, position, creator_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, project_id, title, description, status, position, replies_total, creator_user_id, created_at, updated_at
	`, item.ID, item.ProjectID, item.Title, item.Description, item.Status, pos, item.CreatorUserID).Scan(
		&item.ID, &item.ProjectID, &item.Title, &item.Description, &item.Status,
		&item.Position, &item.RepliesTotal, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Debate{}, fmt.Errorf("insert debate: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateDebate(ctx context.Context, debateID string, patch DebatePatch) (Debate, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{debateID}
	argN := 2

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s=$%d", column, argN))
		args = append(args, value)
		argN++
	}
	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Description.Set {
		addSet("description", patch.Description.Value)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.Position != nil {
		addSet("position", *patch.Position)
	}

	var item Debate
	query := fmt.Sprintf(`
		UPDATE debates
		SET %s
		WHERE id=$1
		RETURNING id, project_id, title, description, status, position, replies_total, creator_user_id, created_at, updated_at
	`, strings.Join(sets, ", "))
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.ProjectID, &item.Title, &item.Description, &item.Status,
		&item.Position, &item.RepliesTotal, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Debate{}, err
	}
	return item, nil
}

// DeleteDebate removes a debate and all of its replies in one transaction:
// either both the debate and its replies are gone, or neither is.
func (s *PostgresStore) DeleteDebate(ctx context.Context, debateID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete debate tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM debate_replies WHERE debate_id=$1`, debateID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete debate replies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM debates WHERE id=$1`, debateID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete debate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete debate: %w", err)
	}
	return nil
}

// Debate replies

func (s *PostgresStore) ListDebateReplies(ctx context.Context, debateID string) ([]DebateReply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debate_id, body, creator_user_id, created_at
		FROM debate_replies
		WHERE debate_id=$1
		ORDER BY created_at ASC, id ASC
	`, debateID)
	if err != nil {
		return nil, fmt.Errorf("list debate replies: %w", err)
	}
	defer rows.Close()

	items := make([]DebateReply, 0)
	for rows.Next() {
		var item DebateReply
		if err := rows.Scan(&item.ID, &item.DebateID, &item.Body, &item.CreatorUserID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan debate reply: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debate replies: %w", err)
	}
	return items, nil
}

// InsertDebateReply inserts the reply and bumps the parent's replies_total in
// the same transaction, so the denormalized count never drifts from the rows.
func (s *PostgresStore) InsertDebateReply(ctx context.Context, item DebateReply) (DebateReply, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DebateReply{}, fmt.Errorf("begin insert reply tx: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO debate_replies (id, debate_id, body, creator_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, debate_id, body, creator_user_id, created_at
	`, item.ID, item.DebateID, item.Body, item.CreatorUserID).Scan(
		&item.ID, &item.DebateID, &item.Body, &item.CreatorUserID, &item.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return DebateReply{}, fmt.Errorf("insert debate reply: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE debates SET replies_total = replies_total + 1, updated_at=NOW() WHERE id=$1
	`, item.DebateID); err != nil {
		_ = tx.Rollback()
		return DebateReply{}, fmt.Errorf("bump replies total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return DebateReply{}, fmt.Errorf("commit insert reply: %w", err)
	}
	return item, nil
}

// Info cards

func (s *PostgresStore) ListInfoCards(ctx context.Context, projectID string) ([]InfoCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, title, content, importance, position, assigned_user_id, creator_user_id, created_at, updated_at
		FROM info_cards
		WHERE project_id=$1
		ORDER BY position ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list info cards: %w", err)
	}
	defer rows.Close()

	items := make([]InfoCard, 0)
	for rows.Next() {
		var item InfoCard
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Title, &item.Content, &item.Importance,
			&item.Position, &item.AssignedUserID, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan info card: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate info cards: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetInfoCard(ctx context.Context, infoCardID string) (InfoCard, error) {
	var item InfoCard
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, content, importance, position, assigned_user_id, creator_user_id, created_at, updated_at
		FROM info_cards
		WHERE id=$1
	`, infoCardID).Scan(&item.ID, &item.ProjectID, &item.Title, &item.Content, &item.Importance,
		&item.Position, &item.AssignedUserID, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return InfoCard{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertInfoCard(ctx context.Context, item InfoCard, explicitPosition *float64) (InfoCard, error) {
	pos, err := s.resolvePosition(ctx, tableInfoCards, item.ProjectID, explicitPosition)
	if err != nil {
		return InfoCard{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO info_cards (id, project_id, title, content, importance, position, assigned_user_id, creator_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, project_id, title, content, importance, position, assigned_user_id, creator_user_id, created_at, updated_at
	`, item.ID, item.ProjectID, item.Title, item.Content, item.Importance, pos, item.AssignedUserID, item.CreatorUserID).Scan(
		&item.ID, &item.ProjectID, &item.Title, &item.Content, &item.Importance,
		&item.Position, &item.AssignedUserID, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return InfoCard{}, fmt.Errorf("insert info card: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateInfoCard(ctx context.Context, infoCardID string, patch InfoCardPatch) (InfoCard, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{infoCardID}
	argN := 2

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s=$%d", column, argN))
		args = append(args, value)
		argN++
	}
	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Content.Set {
		addSet("content", patch.Content.Value)
	}
	if patch.Importance != nil {
		addSet("importance", *patch.Importance)
	}
	if patch.AssignedUserID.Set {
		addSet("assigned_user_id", patch.AssignedUserID.Value)
	}
	if patch.Position != nil {
		addSet("position", *patch.Position)
	}

	var item InfoCard
	query := fmt.Sprintf(`
		UPDATE info_cards
		SET %s
		WHERE id=$1
		RETURNING id, project_id, title, content, importance, position, assigned_user_id, creator_user_id, created_at, updated_at
	`, strings.Join(sets, ", "))
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.ProjectID, &item.Title, &item.Content, &item.Importance,
		&item.Position, &item.AssignedUserID, &item.CreatorUserID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return InfoCard{}, err
	}
	return item, nil
}

// DeleteInfoCard removes an info card and its attachment rows in one
// transaction. Attachment blobs live in object storage and are removed by the
// caller before the rows go away.
func (s *PostgresStore) DeleteInfoCard(ctx context.Context, infoCardID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete info card tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE info_card_id=$1`, infoCardID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete attachments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM info_cards WHERE id=$1`, infoCardID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete info card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete info card: %w", err)
	}
	return nil
}

// Attachments

func (s *PostgresStore) ListAttachments(ctx context.Context, infoCardID string) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, info_card_id, name, content_type, size, object_key, creator_user_id, created_at
		FROM attachments
		WHERE info_card_id=$1
		ORDER BY created_at ASC, id ASC
	`, infoCardID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	items := make([]Attachment, 0)
	for rows.Next() {
		var item Attachment
		if err := rows.Scan(&item.ID, &item.InfoCardID, &item.Name, &item.ContentType,
			&item.Size, &item.ObjectKey, &item.CreatorUserID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetAttachment(ctx context.Context, attachmentID string) (Attachment, error) {
	var item Attachment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, info_card_id, name, content_type, size, object_key, creator_user_id, created_at
		FROM attachments
		WHERE id=$1
	`, attachmentID).Scan(&item.ID, &item.InfoCardID, &item.Name, &item.ContentType,
		&item.Size, &item.ObjectKey, &item.CreatorUserID, &item.CreatedAt)
	if err != nil {
		return Attachment{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertAttachment(ctx context.Context, item Attachment) (Attachment, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attachments (id, info_card_id, name, content_type, size, object_key, creator_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, info_card_id, name, content_type, size, object_key, creator_user_id, created_at
	`, item.ID, item.InfoCardID, item.Name, item.ContentType, item.Size, item.ObjectKey, item.CreatorUserID).Scan(
		&item.ID, &item.InfoCardID, &item.Name, &item.ContentType,
		&item.Size, &item.ObjectKey, &item.CreatorUserID, &item.CreatedAt)
	if err != nil {
		return Attachment{}, fmt.Errorf("insert attachment: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) DeleteAttachment(ctx context.Context, attachmentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id=$1`, attachmentID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// Refresh sessions (Postgres fallback when Redis is not configured)

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

package app

import (
	"context"
	"io"
	"time"

	"github.com/akitl/plankaHub/internal/auth"
	"github.com/akitl/plankaHub/internal/config"
	"github.com/akitl/plankaHub/internal/rbac"
	"github.com/akitl/plankaHub/internal/search"
	"github.com/akitl/plankaHub/internal/store"
	"github.com/akitl/plankaHub/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	ListUsersByIDs(context.Context, []string) ([]store.User, error)
	GetProject(context.Context, string) (store.Project, error)
	IsProjectManager(ctx context.Context, userID, projectID string) (bool, error)

	ListDebates(ctx context.Context, projectID, status string) ([]store.Debate, error)
	GetDebate(context.Context, string) (store.Debate, error)
	InsertDebate(ctx context.Context, item store.Debate, explicitPosition *float64) (store.Debate, error)
	UpdateDebate(ctx context.Context, debateID string, patch store.DebatePatch) (store.Debate, error)
	DeleteDebate(context.Context, string) error

	ListDebateReplies(context.Context, string) ([]store.DebateReply, error)
	InsertDebateReply(context.Context, store.DebateReply) (store.DebateReply, error)

	ListInfoCards(context.Context, string) ([]store.InfoCard, error)
	GetInfoCard(context.Context, string) (store.InfoCard, error)
	InsertInfoCard(ctx context.Context, item store.InfoCard, explicitPosition *float64) (store.InfoCard, error)
	UpdateInfoCard(ctx context.Context, infoCardID string, patch store.InfoCardPatch) (store.InfoCard, error)
	DeleteInfoCard(context.Context, string) error

	ListAttachments(context.Context, string) ([]store.Attachment, error)
	GetAttachment(context.Context, string) (store.Attachment, error)
	InsertAttachment(context.Context, store.Attachment) (store.Attachment, error)
	DeleteAttachment(context.Context, string) error

	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)

	Ping(ctx context.Context) error
}

// refreshStore is the Redis-backed refresh token store. Optional; when nil
// the dataStore's refresh_sessions table is used instead.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// searchIndex is the full-text search facade. Optional.
type searchIndex interface {
	Search(q search.Query) search.Response
	IndexDebate(d search.DebateRecord)
	IndexInfoCard(c search.InfoCardRecord)
	RemoveDebate(id string)
	RemoveInfoCard(id string)
}

// blobStore holds attachment bytes. Optional; attachment endpoints return
// 503 when it is not configured.
type blobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// passwordAuth authenticates email/password sign-ins.
type passwordAuth interface {
	SignIn(ctx context.Context, email, password string) (store.User, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions refreshStore
	search   searchIndex
	blobs    blobStore
	authn    passwordAuth
}

type Options struct {
	Sessions refreshStore
	Search   searchIndex
	Blobs    blobStore
	Authn    passwordAuth
}

func New(cfg config.Config, dataStore *store.PostgresStore, opts Options) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: opts.Sessions,
		search:   opts.Search,
		blobs:    opts.Blobs,
		authn:    opts.Authn,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SignIn authenticates an email/password pair and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	if s.authn == nil {
		return Session{}, errAuthUnavailable()
	}
	user, err := s.authn.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// session is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)

	var user store.User
	if s.sessions != nil {
		userID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
		if err != nil {
			return Session{}, err
		}
		user, err = s.store.GetUserByID(ctx, userID)
		if err != nil {
			return Session{}, err
		}
		if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
			return Session{}, err
		}
	} else {
		var err error
		user, err = s.store.LookupRefreshSession(ctx, tokenHash)
		if err != nil {
			return Session{}, err
		}
		if err := s.store.RevokeRefreshSession(ctx, tokenHash); err != nil {
			return Session{}, err
		}
	}
	return s.issueSession(ctx, user)
}

// Logout revokes both the access token and the refresh token, if present.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		tokenHash := auth.HashToken(refreshToken)
		if s.sessions != nil {
			return s.sessions.RevokeRefreshSession(ctx, tokenHash)
		}
		return s.store.RevokeRefreshSession(ctx, tokenHash)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.Name,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	tokenHash := auth.HashToken(refresh)
	if s.sessions != nil {
		err = s.sessions.SaveRefreshSession(ctx, tokenHash, user.ID, refreshExpires)
	} else {
		err = s.store.SaveRefreshSession(ctx, tokenHash, user.ID, refreshExpires)
	}
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates a bearer token, rejecting revoked tokens.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// canManageProject is the single authorization predicate for project-scoped
// content. The admin path is checked first so the manager lookup only runs
// when needed; the lookup result is trusted verbatim.
func (s *Service) canManageProject(ctx context.Context, session Session, project store.Project) (bool, error) {
	role := rbac.Normalize(session.Role)
	hasOwnerManager := project.OwnerProjectManagerID != nil

	if role == rbac.RoleAdmin && !hasOwnerManager {
		return true, nil
	}

	isManager, err := s.store.IsProjectManager(ctx, session.UserID, project.ID)
	if err != nil {
		return false, err
	}
	return rbac.CanManageProject(role, hasOwnerManager, isManager), nil
}

// requireProjectAccess loads a project and checks the acting session against
// it, translating absence and denial into the domain error taxonomy.
func (s *Service) requireProjectAccess(ctx context.Context, session Session, projectID string) (store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if isNoRows(err) {
			return store.Project{}, errProjectNotFound()
		}
		return store.Project{}, err
	}

	allowed, err := s.canManageProject(ctx, session, project)
	if err != nil {
		return store.Project{}, err
	}
	if !allowed {
		return store.Project{}, errNotEnoughRights()
	}
	return project, nil
}

// Search runs a full-text query across debates and info cards.
func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Total: 0, Query: q.Text}
	}
	return s.search.Search(q)
}

package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akitl/plankaHub/internal/auth"
	"github.com/akitl/plankaHub/internal/authn"
	"github.com/akitl/plankaHub/internal/search"
	"github.com/akitl/plankaHub/internal/session"
	"github.com/akitl/plankaHub/internal/store"
)

const (
	maxTitleLength   = 1024
	maxBodyLength    = 65536
	maxAttachmentMiB = 32
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/sign-in" {
		s.handleSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(sess))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		sess := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				sess = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), sess, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		sess, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": sess.UserName, "userId": sess.UserID, "role": sess.Role})
		return
	}

	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "projects" && parts[3] == "debates" {
		projectID := parts[2]
		switch r.Method {
		case http.MethodGet:
			s.handleListDebates(w, r, sess, projectID)
		case http.MethodPost:
			s.handleCreateDebate(w, r, sess, projectID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "projects" && parts[3] == "info-cards" {
		projectID := parts[2]
		switch r.Method {
		case http.MethodGet:
			s.handleListInfoCards(w, r, sess, projectID)
		case http.MethodPost:
			s.handleCreateInfoCard(w, r, sess, projectID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "debates" {
		debateID := parts[2]
		switch r.Method {
		case http.MethodPatch:
			s.handleUpdateDebate(w, r, sess, debateID)
		case http.MethodDelete:
			s.handleDeleteDebate(w, r, sess, debateID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "debates" && parts[3] == "replies" {
		debateID := parts[2]
		switch r.Method {
		case http.MethodGet:
			s.handleListReplies(w, r, sess, debateID)
		case http.MethodPost:
			s.handleCreateReply(w, r, sess, debateID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "info-cards" {
		infoCardID := parts[2]
		switch r.Method {
		case http.MethodPatch:
			s.handleUpdateInfoCard(w, r, sess, infoCardID)
		case http.MethodDelete:
			s.handleDeleteInfoCard(w, r, sess, infoCardID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "info-cards" && parts[3] == "attachments" {
		infoCardID := parts[2]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListAttachments(r.Context(), sess, infoCardID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodPost:
			s.handleUploadAttachment(w, r, sess, infoCardID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "attachments" {
		attachmentID := parts[2]
		switch r.Method {
		case http.MethodGet:
			s.handleDownloadAttachment(w, r, sess, attachmentID)
		case http.MethodDelete:
			payload, err := s.service.DeleteAttachment(r.Context(), sess, attachmentID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	sess, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, authn.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
			return
		}
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	projectID := strings.TrimSpace(r.URL.Query().Get("projectId"))

	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	resp := s.service.Search(search.Query{
		Text:            q,
		FilterType:      search.ResultType(filterType),
		FilterProjectID: projectID,
		Limit:           limit,
		Offset:          offset,
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleListDebates(w http.ResponseWriter, r *http.Request, sess Session, projectID string) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !validDebateStatus(status) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of active, resolved, archived", nil)
		return
	}
	payload, err := s.service.ListDebates(r.Context(), sess, projectID, status)
	if err != nil {
		httpStatus, code, message, details := mapError(err)
		writeError(w, httpStatus, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreateDebate(w http.ResponseWriter, r *http.Request, sess Session, projectID string) {
	var body struct {
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		Status      *string  `json:"status"`
		Position    *float64 `json:"position"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if msg := validateTitle(body.Title); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}
	if body.Status != nil && !validDebateStatus(*body.Status) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of active, resolved, archived", nil)
		return
	}
	if msg := validatePosition(body.Position); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}

	payload, err := s.service.CreateDebate(r.Context(), sess, projectID, CreateDebateInput{
		Title:       strings.TrimSpace(body.Title),
		Description: body.Description,
		Status:      body.Status,
		Position:    body.Position,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUpdateDebate(w http.ResponseWriter, r *http.Request, sess Session, debateID string) {
	var body struct {
		Title       *string         `json:"title"`
		Description json.RawMessage `json:"description"`
		Status      *string         `json:"status"`
		Position    *float64        `json:"position"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.Title != nil {
		if msg := validateTitle(*body.Title); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
			return
		}
	}
	if body.Status != nil && !validDebateStatus(*body.Status) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of active, resolved, archived", nil)
		return
	}
	if msg := validatePosition(body.Position); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}
	description, err := nullableString(body.Description)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "description must be a string or null", nil)
		return
	}

	payload, err := s.service.UpdateDebate(r.Context(), sess, debateID, store.DebatePatch{
		Title:       body.Title,
		Description: description,
		Status:      body.Status,
		Position:    body.Position,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeleteDebate(w http.ResponseWriter, r *http.Request, sess Session, debateID string) {
	payload, err := s.service.DeleteDebate(r.Context(), sess, debateID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleListReplies(w http.ResponseWriter, r *http.Request, sess Session, debateID string) {
	payload, err := s.service.ListDebateReplies(r.Context(), sess, debateID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreateReply(w http.ResponseWriter, r *http.Request, sess Session, debateID string) {
	var body struct {
		Body string `json:"body"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	trimmed := strings.TrimSpace(body.Body)
	if trimmed == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
		return
	}
	if len(trimmed) > maxBodyLength {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is too long", nil)
		return
	}

	payload, err := s.service.CreateDebateReply(r.Context(), sess, debateID, trimmed)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleListInfoCards(w http.ResponseWriter, r *http.Request, sess Session, projectID string) {
	payload, err := s.service.ListInfoCards(r.Context(), sess, projectID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreateInfoCard(w http.ResponseWriter, r *http.Request, sess Session, projectID string) {
	var body struct {
		Title          string   `json:"title"`
		Content        *string  `json:"content"`
		Importance     *int     `json:"importance"`
		AssignedUserID *string  `json:"assignedUserId"`
		Position       *float64 `json:"position"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if msg := validateTitle(body.Title); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}
	if body.Importance != nil && !validImportance(*body.Importance) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "importance must be between 1 and 10", nil)
		return
	}
	if msg := validatePosition(body.Position); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}

	payload, err := s.service.CreateInfoCard(r.Context(), sess, projectID, CreateInfoCardInput{
		Title:          strings.TrimSpace(body.Title),
		Content:        body.Content,
		Importance:     body.Importance,
		AssignedUserID: body.AssignedUserID,
		Position:       body.Position,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUpdateInfoCard(w http.ResponseWriter, r *http.Request, sess Session, infoCardID string) {
	var body struct {
		Title          *string         `json:"title"`
		Content        json.RawMessage `json:"content"`
		Importance     *int            `json:"importance"`
		AssignedUserID json.RawMessage `json:"assignedUserId"`
		Position       *float64        `json:"position"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.Title != nil {
		if msg := validateTitle(*body.Title); msg != "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
			return
		}
	}
	if body.Importance != nil && !validImportance(*body.Importance) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "importance must be between 1 and 10", nil)
		return
	}
	if msg := validatePosition(body.Position); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return
	}
	content, err := nullableString(body.Content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "content must be a string or null", nil)
		return
	}
	assignedUserID, err := nullableString(body.AssignedUserID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "assignedUserId must be a string or null", nil)
		return
	}

	payload, err := s.service.UpdateInfoCard(r.Context(), sess, infoCardID, store.InfoCardPatch{
		Title:          body.Title,
		Content:        content,
		Importance:     body.Importance,
		AssignedUserID: assignedUserID,
		Position:       body.Position,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeleteInfoCard(w http.ResponseWriter, r *http.Request, sess Session, infoCardID string) {
	payload, err := s.service.DeleteInfoCard(r.Context(), sess, infoCardID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUploadAttachment(w http.ResponseWriter, r *http.Request, sess Session, infoCardID string) {
	if err := r.ParseMultipartForm(maxAttachmentMiB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart form expected", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file is required", nil)
		return
	}
	defer file.Close()

	name := header.Filename
	if name == "" {
		name = "attachment"
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	payload, err := s.service.UploadAttachment(r.Context(), sess, infoCardID, name, contentType, header.Size, file)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDownloadAttachment(w http.ResponseWriter, r *http.Request, sess Session, attachmentID string) {
	attachment, reader, err := s.service.OpenAttachment(r.Context(), sess, attachmentID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Name))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return sess, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func sessionPayload(sess Session) map[string]any {
	return map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"userId":       sess.UserID,
		"userName":     sess.UserName,
		"role":         sess.Role,
		"expiresAt":    sess.ExpiresAt.Unix(),
	}
}

func validateTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "title is required"
	}
	if len(trimmed) > maxTitleLength {
		return "title is too long"
	}
	return ""
}

func validDebateStatus(status string) bool {
	switch status {
	case store.DebateStatusActive, store.DebateStatusResolved, store.DebateStatusArchived:
		return true
	}
	return false
}

func validImportance(importance int) bool {
	return importance >= 1 && importance <= 10
}

// nullableString maps a raw JSON patch field onto the three-way store
// semantics: absent leaves the column alone, an explicit null clears it, a
// string sets it.
func nullableString(raw json.RawMessage) (store.NullableString, error) {
	if raw == nil {
		return store.NullableString{}, nil
	}
	if string(raw) == "null" {
		return store.NullableString{Set: true}, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return store.NullableString{}, err
	}
	return store.NullableString{Set: true, Value: &value}, nil
}

func validatePosition(position *float64) string {
	if position != nil && *position < 0 {
		return "position must not be negative"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if isNoRows(err) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, session.ErrTokenNotFound) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

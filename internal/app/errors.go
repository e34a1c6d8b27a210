package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func errProjectNotFound() *DomainError {
	return domainError(http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found", nil)
}

func errDebateNotFound() *DomainError {
	return domainError(http.StatusNotFound, "DEBATE_NOT_FOUND", "Debate not found", nil)
}

func errInfoCardNotFound() *DomainError {
	return domainError(http.StatusNotFound, "INFO_CARD_NOT_FOUND", "Info card not found", nil)
}

func errAttachmentNotFound() *DomainError {
	return domainError(http.StatusNotFound, "ATTACHMENT_NOT_FOUND", "Attachment not found", nil)
}

func errNotEnoughRights() *DomainError {
	return domainError(http.StatusForbidden, "NOT_ENOUGH_RIGHTS", "Not enough rights", nil)
}

func errValidation(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

func errAttachmentsUnavailable() *DomainError {
	return domainError(http.StatusServiceUnavailable, "ATTACHMENTS_UNAVAILABLE", "Attachment storage not configured", nil)
}

func errAuthUnavailable() *DomainError {
	return domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication not configured", nil)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

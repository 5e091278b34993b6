package model

import (
	"strings"
	"time"
)

// Submission statuses
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is a known submission status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// DocumentType a category of required paperwork (document_types)
type DocumentType struct {
	ID                 uint    `gorm:"primaryKey"                       json:"id"`
	Key                string  `gorm:"column:doc_key;type:varchar(50);not null;unique" json:"key"`
	Title              string  `gorm:"type:varchar(200);not null"       json:"title"`
	Description        *string `gorm:"type:text"                        json:"description,omitempty"`
	AcceptedExtensions string  `gorm:"type:varchar(200);not null;default:'pdf'" json:"accepted_extensions"` // comma separated
}

// TableName table name
func (DocumentType) TableName() string { return "document_types" }

// Extensions returns the accepted extensions, lower-case and without dots
func (d *DocumentType) Extensions() []string {
	parts := strings.Split(d.AcceptedExtensions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p)), ".")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Accepts reports whether a file with the given extension may be uploaded
func (d *DocumentType) Accepts(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	for _, e := range d.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// SubmittedDocument one uploaded file for a graduate and document type (submitted_documents)
// Rows are append-only per (graduate, type); the latest SubmittedAt wins.
type SubmittedDocument struct {
	ID             uint      `gorm:"primaryKey"                                        json:"id"`
	GraduateID     string    `gorm:"column:graduate_curp;type:varchar(18);not null;index" json:"graduate_curp"`
	DocumentTypeID uint      `gorm:"not null;index"                                    json:"document_type_id"`
	File           string    `gorm:"type:varchar(255);not null"                        json:"file"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending'"       json:"status"`
	Notes          string    `gorm:"type:text;not null;default:''"                     json:"notes"`
	SubmittedAt    time.Time `gorm:"not null"                                          json:"submitted_at"`
	UpdatedAt      time.Time `gorm:"not null"                                          json:"updated_at"`

	Graduate     *Graduate     `gorm:"foreignKey:GraduateID;references:IdentityKey;constraint:OnDelete:CASCADE" json:"-"`
	DocumentType *DocumentType `gorm:"foreignKey:DocumentTypeID;constraint:OnDelete:CASCADE"                    json:"document_type,omitempty"`
}

// TableName table name
func (SubmittedDocument) TableName() string { return "submitted_documents" }

package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

// TextbookModel persists only object keys for assets. Presigned URLs are
// derived on read and must never be stored.
type TextbookModel struct {
	ID            string  `gorm:"primaryKey"`
	Title         string  `gorm:"not null"`
	Description   string  `gorm:"not null"`
	Author        string  `gorm:"not null;index"`
	Price         float64 `gorm:"not null"`
	Category      string  `gorm:"not null;index"`
	ISBN          string
	LecturerID    string `gorm:"not null;index"`
	LecturerName  string `gorm:"not null"`
	FileKey       string `gorm:"not null"`
	FileName      string `gorm:"not null"`
	ThumbnailKey  string
	ThumbnailName string
	PageCount     int
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// PurchaseModel carries a composite unique index on (student_id, textbook_id);
// the insert failure is the duplicate-purchase check.
type PurchaseModel struct {
	ID         string    `gorm:"primaryKey"`
	TextbookID string    `gorm:"not null;index;uniqueIndex:idx_purchase_student_textbook"`
	StudentID  string    `gorm:"not null;index;uniqueIndex:idx_purchase_student_textbook"`
	Amount     float64   `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

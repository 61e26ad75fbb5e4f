package domain

import "time"

type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleAdmin    UserRole = "admin"
)

// ValidRole reports whether the role is one of the known roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Textbook is the catalog record. FileKey/ThumbnailKey are the durable
// references into object storage; PdfURL and CoverImage are derived views
// recomputed with fresh presigned URLs on every read and never persisted.
type Textbook struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Author        string    `json:"author"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	ISBN          string    `json:"isbn,omitempty"`
	LecturerID    string    `json:"lecturerId"`
	LecturerName  string    `json:"lecturerName"`
	FileKey       string    `json:"fileKey"`
	FileName      string    `json:"fileName"`
	ThumbnailKey  string    `json:"thumbnailKey,omitempty"`
	ThumbnailName string    `json:"thumbnailName,omitempty"`
	PageCount     int       `json:"pageCount,omitempty"`
	PdfURL        string    `json:"pdfUrl,omitempty"`
	CoverImage    string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Purchase is an append-only ledger entry. At most one exists per
// (StudentID, TextbookID) pair; entries are never mutated or deleted.
type Purchase struct {
	ID         string    `json:"id"`
	TextbookID string    `json:"textbookId"`
	StudentID  string    `json:"studentId"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PurchaseWithTextbook embeds the purchased textbook for list views.
type PurchaseWithTextbook struct {
	Purchase
	Textbook *Textbook `json:"textbook"`
}

// PurchaseStats aggregates the ledger; recomputed per request.
type PurchaseStats struct {
	TotalPurchases  int     `json:"totalPurchases"`
	TotalRevenue    float64 `json:"totalRevenue"`
	RecentPurchases int     `json:"recentPurchases"`
	AverageAmount   float64 `json:"averageAmount"`
}

// Asset describes an uploaded object as returned to clients.
type Asset struct {
	FileKey    string    `json:"fileKey"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileSize   int64     `json:"fileSize"`
	FileType   string    `json:"fileType"`
	PageCount  int       `json:"pageCount,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

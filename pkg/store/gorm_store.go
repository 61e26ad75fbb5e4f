package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"unishelf/pkg/domain"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres-backed store and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	return NewGormStoreFromDialector(postgres.Open(dsn))
}

// NewGormStoreFromDialector opens the store on any GORM dialector.
// Tests use it with an in-memory sqlite driver.
func NewGormStoreFromDialector(dialector gorm.Dialector) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		// Unique violations must surface as gorm.ErrDuplicatedKey so the
		// purchase ledger can translate them to ErrDuplicatePurchase.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &TextbookModel{}, &PurchaseModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "password_hash", "role", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveTextbook stores or updates a textbook.
func (s *GormStore) SaveTextbook(t domain.Textbook) error {
	model := textbookToModel(t)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "author", "price", "category", "isbn",
			"lecturer_id", "lecturer_name", "file_key", "file_name",
			"thumbnail_key", "thumbnail_name", "page_count", "updated_at",
		}),
	}).Create(&model).Error
}

// ListTextbooks returns catalog records newest first, narrowed by filter.
func (s *GormStore) ListTextbooks(filter TextbookFilter) ([]domain.Textbook, error) {
	tx := s.db.Order("created_at DESC")
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.LecturerID != "" {
		tx = tx.Where("lecturer_id = ?", filter.LecturerID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}
	var models []TextbookModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Textbook, 0, len(models))
	for _, m := range models {
		res = append(res, textbookFromModel(m))
	}
	return res, nil
}

// GetTextbook retrieves a textbook.
func (s *GormStore) GetTextbook(id string) (domain.Textbook, bool, error) {
	var model TextbookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Textbook{}, false, nil
		}
		return domain.Textbook{}, false, err
	}
	return textbookFromModel(model), true, nil
}

// DeleteTextbook removes the catalog record. Purchases are kept as an audit
// trail even when the textbook goes away.
func (s *GormStore) DeleteTextbook(id string) error {
	return s.db.Delete(&TextbookModel{}, "id = ?", id).Error
}

// AppendPurchase inserts a ledger entry. A duplicate (student, textbook)
// pair fails the composite unique index and maps to ErrDuplicatePurchase.
func (s *GormStore) AppendPurchase(p domain.Purchase) error {
	model := purchaseToModel(p)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicatePurchase
		}
		return err
	}
	return nil
}

// GetPurchase retrieves a purchase.
func (s *GormStore) GetPurchase(id string) (domain.Purchase, bool, error) {
	var model PurchaseModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Purchase{}, false, nil
		}
		return domain.Purchase{}, false, err
	}
	return purchaseFromModel(model), true, nil
}

// GetPurchaseByPair retrieves the entry for (student, textbook), if any.
func (s *GormStore) GetPurchaseByPair(studentID, textbookID string) (domain.Purchase, bool, error) {
	var model PurchaseModel
	err := s.db.Where("student_id = ? AND textbook_id = ?", studentID, textbookID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Purchase{}, false, nil
		}
		return domain.Purchase{}, false, err
	}
	return purchaseFromModel(model), true, nil
}

// ListPurchases returns the full ledger newest first.
func (s *GormStore) ListPurchases() ([]domain.Purchase, error) {
	return s.listPurchases()
}

// ListPurchasesByStudent returns a student's purchases newest first.
func (s *GormStore) ListPurchasesByStudent(studentID string) ([]domain.Purchase, error) {
	return s.listPurchases("student_id = ?", studentID)
}

// ListPurchasesByTextbook returns purchases of one textbook newest first.
func (s *GormStore) ListPurchasesByTextbook(textbookID string) ([]domain.Purchase, error) {
	return s.listPurchases("textbook_id = ?", textbookID)
}

// ListPurchasesByTextbookIDs returns purchases across a set of textbooks.
func (s *GormStore) ListPurchasesByTextbookIDs(textbookIDs []string) ([]domain.Purchase, error) {
	if len(textbookIDs) == 0 {
		return []domain.Purchase{}, nil
	}
	return s.listPurchases("textbook_id IN ?", textbookIDs)
}

func (s *GormStore) listPurchases(conds ...any) ([]domain.Purchase, error) {
	tx := s.db.Order("created_at DESC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	var models []PurchaseModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Purchase, 0, len(models))
	for _, m := range models {
		res = append(res, purchaseFromModel(m))
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		FullName:     m.FullName,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func textbookToModel(t domain.Textbook) TextbookModel {
	return TextbookModel{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Author:        t.Author,
		Price:         t.Price,
		Category:      t.Category,
		ISBN:          t.ISBN,
		LecturerID:    t.LecturerID,
		LecturerName:  t.LecturerName,
		FileKey:       t.FileKey,
		FileName:      t.FileName,
		ThumbnailKey:  t.ThumbnailKey,
		ThumbnailName: t.ThumbnailName,
		PageCount:     t.PageCount,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func textbookFromModel(m TextbookModel) domain.Textbook {
	return domain.Textbook{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		Author:        m.Author,
		Price:         m.Price,
		Category:      m.Category,
		ISBN:          m.ISBN,
		LecturerID:    m.LecturerID,
		LecturerName:  m.LecturerName,
		FileKey:       m.FileKey,
		FileName:      m.FileName,
		ThumbnailKey:  m.ThumbnailKey,
		ThumbnailName: m.ThumbnailName,
		PageCount:     m.PageCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func purchaseToModel(p domain.Purchase) PurchaseModel {
	return PurchaseModel{
		ID:         p.ID,
		TextbookID: p.TextbookID,
		StudentID:  p.StudentID,
		Amount:     p.Amount,
		CreatedAt:  p.CreatedAt,
	}
}

func purchaseFromModel(m PurchaseModel) domain.Purchase {
	return domain.Purchase{
		ID:         m.ID,
		TextbookID: m.TextbookID,
		StudentID:  m.StudentID,
		Amount:     m.Amount,
		CreatedAt:  m.CreatedAt,
	}
}

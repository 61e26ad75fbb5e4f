package app

import (
	"fmt"
	"time"

	"unishelf/pkg/auth"
	"unishelf/pkg/storage"
	"unishelf/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	Objects        storage.ObjectStore
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SessionSecret  string
	Sessions       *auth.SessionManager
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	ViewURLTTL     time.Duration
	DownloadURLTTL time.Duration
	UploadTimeout  time.Duration
}

// App is the core application service wiring storage, object storage, and
// session management together.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	sessions      *auth.SessionManager
	viewTTL       time.Duration
	downloadTTL   time.Duration
	uploadTimeout time.Duration
}

// New constructs the application. Store, Objects, and Sessions may be
// injected (tests) or built from the remaining config fields.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		var err error
		sessions, err = auth.NewSessionManager(cfg.SessionSecret, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			return nil, fmt.Errorf("init session manager: %w", err)
		}
	}

	viewTTL := cfg.ViewURLTTL
	if viewTTL <= 0 {
		viewTTL = 24 * time.Hour
	}
	downloadTTL := cfg.DownloadURLTTL
	if downloadTTL <= 0 {
		downloadTTL = storage.MaxPresignExpiry
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}

	return &App{
		store:         dataStore,
		objects:       objects,
		sessions:      sessions,
		viewTTL:       viewTTL,
		downloadTTL:   downloadTTL,
		uploadTimeout: uploadTimeout,
	}, nil
}

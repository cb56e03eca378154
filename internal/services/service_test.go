// internal/services/service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/models"
)

// newTestDB opens a fresh in-memory database per test. A single
// connection keeps every statement on the same sqlite instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.StoreDomain{},
		&models.Attribute{},
		&models.AttributeValue{},
		&models.Product{},
		&models.ProductAttributeBinding{},
		&models.Variant{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Platform: config.PlatformConfig{
			PrimaryDomain: "openmall.example",
		},
		Catalog: config.CatalogConfig{
			MaxCombinations: 500,
			SKUSeparator:    "-",
		},
		I18n: config.I18nConfig{
			DefaultLocale: "en",
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	tag := uuid.New().String()[:8]
	user := &models.User{
		Username: fmt.Sprintf("%s_%s", userType, tag),
		Email:    fmt.Sprintf("%s_%s@example.com", userType, tag),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("TestPass123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestStore(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status models.StoreStatus) *models.Store {
	t.Helper()

	tag := uuid.New().String()[:8]
	store := &models.Store{
		OwnerID: ownerID,
		Name:    "Store " + tag,
		Slug:    "store-" + tag,
		Status:  status,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

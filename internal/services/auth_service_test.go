// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/models"
	"github.com/openmall/mall-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	cfg := newTestConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	suite.service = NewAuthService(suite.db, cfg)
}

func (suite *AuthServiceTestSuite) register(username, email string, userType models.UserType) (*AuthResponse, error) {
	return suite.service.Register(&RegisterRequest{
		Username: username,
		Email:    email,
		Password: "TestPass123!",
		UserType: userType,
	})
}

func (suite *AuthServiceTestSuite) TestRegisterOwner() {
	resp, err := suite.register("shopkeeper", "owner@example.com", models.UserTypeOwner)
	suite.Require().NoError(err)

	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal(models.UserTypeOwner, resp.User.UserType)
	suite.NotEqual("TestPass123!", resp.User.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.register("first", "same@example.com", models.UserTypeCustomer)
	suite.Require().NoError(err)

	_, err = suite.register("second", "same@example.com", models.UserTypeCustomer)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestAdminSelfRegistrationRejected() {
	_, err := suite.register("sneaky", "sneaky@example.com", models.UserTypeAdmin)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	_, err := suite.register("shopper", "shopper@example.com", models.UserTypeCustomer)
	suite.Require().NoError(err)

	resp, err := suite.service.Login(&LoginRequest{
		Email:    "shopper@example.com",
		Password: "TestPass123!",
	})
	suite.Require().NoError(err)
	suite.NotEmpty(resp.AccessToken)
	suite.NotNil(resp.User.LastLoginAt)

	_, err = suite.service.Login(&LoginRequest{
		Email:    "shopper@example.com",
		Password: "wrong-password",
	})
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestSuspendedUserCannotLogin() {
	resp, err := suite.register("banned", "banned@example.com", models.UserTypeCustomer)
	suite.Require().NoError(err)

	err = suite.db.Model(resp.User).Update("status", models.UserStatusSuspended).Error
	suite.Require().NoError(err)

	_, err = suite.service.Login(&LoginRequest{
		Email:    "banned@example.com",
		Password: "TestPass123!",
	})
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	resp, err := suite.register("refresher", "refresher@example.com", models.UserTypeCustomer)
	suite.Require().NoError(err)

	refreshed, err := suite.service.RefreshToken(resp.RefreshToken)
	suite.Require().NoError(err)
	suite.NotEmpty(refreshed.AccessToken)
	suite.Equal(resp.User.ID, refreshed.User.ID)

	_, err = suite.service.RefreshToken("garbage-token")
	suite.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

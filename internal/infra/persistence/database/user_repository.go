package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/infra/persistence/model"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return repo.first(ctx, "find user by id", "id = ?", id)
}

// FindByUsername retrieves a single user by login name.
func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.first(ctx, "find user by username", "username = ?", username)
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.first(ctx, "find user by email", "email = ?", email)
}

// FindByCustomerID retrieves the user linked to a customer.
func (repo *userRepository) FindByCustomerID(ctx context.Context, customerID uint) (*entity.User, error) {
	return repo.first(ctx, "find user by customer", "customer_id = ?", customerID)
}

func (repo *userRepository) first(ctx context.Context, op string, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).Where(query, args...).First(&userM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, op)
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDuplicateResource.WrapMessage("username or email already exists")
		}
		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// LinkCustomer points the user at a customer record.
func (repo *userRepository) LinkCustomer(ctx context.Context, userID, customerID uint) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Update("customer_id", customerID)

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to link customer")
	}

	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UnlinkCustomer clears the customer reference of every user linked to customerID.
func (repo *userRepository) UnlinkCustomer(ctx context.Context, customerID uint) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("customer_id = ?", customerID).
		Update("customer_id", nil).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to unlink customer")
	}

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:             data.ID,
		Username:       data.Username,
		Email:          data.Email,
		FirstName:      data.FirstName,
		LastName:       data.LastName,
		Phone:          data.Phone,
		HashedPassword: data.HashedPassword,
		Role:           entity.Role(data.Role),
		IsActive:       data.IsActive,
		CustomerID:     data.CustomerID,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:             data.ID,
		Username:       data.Username,
		Email:          data.Email,
		FirstName:      data.FirstName,
		LastName:       data.LastName,
		Phone:          data.Phone,
		HashedPassword: data.HashedPassword,
		Role:           data.Role.String(),
		IsActive:       data.IsActive,
		CustomerID:     data.CustomerID,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}

// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"erp/config"
	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/domain/service"
	"erp/internal/usecase"
)

const tokenTypeBearer = "bearer"

// dummyPasswordSeed is hashed once so that logins for unknown usernames still pay for a bcrypt comparison.
const dummyPasswordSeed = "erp-dummy-password-for-timing"

// userService implements the UserUsecase interface.
type userService struct {
	txManager           repository.TransactionManager
	userRepo            repository.UserRepository
	customerRepo        repository.CustomerRepository
	hasher              service.PasswordHasher
	tokenService        service.TokenService
	linkCustomerByEmail bool
	bootstrapAdmin      *config.BootstrapAdminConfig
	logger              *slog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	CustomerRepo repository.CustomerRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Config       *config.Config
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	srv := &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		customerRepo: params.CustomerRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
	if params.Config != nil && params.Config.Auth != nil {
		srv.linkCustomerByEmail = params.Config.Auth.LinkCustomerByEmail
		srv.bootstrapAdmin = params.Config.Auth.BootstrapAdmin
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user, linking it to a customer with the same email when enabled.
func (srv *userService) Register(ctx context.Context, caller *entity.Claims, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	role, err := resolveRegistrationRole(input.Role)
	if err != nil {
		return nil, err
	}
	if role.IsAdmin() && !caller.IsAdmin() {
		srv.log(ctx).Warn("Admin registration without admin token", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrForbidden, "only admins can create admin accounts")
	}

	newUser, err := srv.buildUser(input, role)
	if err != nil {
		return nil, err
	}

	var linked *entity.Customer
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		if err := ensureUserIsNew(ctx, userRepo, newUser); err != nil {
			return err
		}

		if srv.linkCustomerByEmail && role == entity.RoleCustomer {
			customer, err := srv.findLinkableCustomer(ctx, repoFactory, newUser.Email)
			if err != nil {
				return err
			}
			if customer != nil {
				newUser.CustomerID = &customer.ID
				linked = customer
			}
		}

		return errors.Wrap(userRepo.Create(ctx, newUser), "failed to create user during registration")
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	if linked != nil {
		// Email ownership is not verified; keep a trail of every implicit link.
		srv.log(ctx).Warn("Linked new user to existing customer by email match",
			slog.Any("userID", newUser.ID), slog.Any("customerID", linked.ID), slog.String("email", newUser.Email))
	}
	srv.log(ctx).Info("User registered", slog.Any("userID", newUser.ID), slog.String("role", role.String()))

	return &usecase.RegisterOutput{User: newUser, Customer: linked}, nil
}

// RegisterWithCustomer creates a customer-role user and its customer record in one transaction.
// An existing customer with the same email is reused unless another user already holds it.
func (srv *userService) RegisterWithCustomer(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	newUser, err := srv.buildUser(input, entity.RoleCustomer)
	if err != nil {
		return nil, err
	}

	var customer *entity.Customer
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		customerRepo := repoFactory.CustomerRepo()

		if err := ensureUserIsNew(ctx, userRepo, newUser); err != nil {
			return err
		}

		existing, err := customerRepo.FindByEmail(ctx, newUser.Email)
		switch {
		case err == nil:
			if _, err := userRepo.FindByCustomerID(ctx, existing.ID); err == nil {
				return errors.Wrap(domainerrors.ErrCustomerAlreadyLinked, "customer with this email belongs to another user")
			} else if !errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(err, "failed to check customer link")
			}
			customer = existing
		case errors.Is(err, repository.ErrCustomerNotFound):
			customer = &entity.Customer{
				Name:     customerNameFor(newUser),
				Email:    newUser.Email,
				Phone:    newUser.Phone,
				IsActive: true,
			}
			if err := customerRepo.Create(ctx, customer); err != nil {
				return errors.Wrap(err, "failed to create customer during registration")
			}
		default:
			return errors.Wrap(err, "failed to find customer by email")
		}

		newUser.CustomerID = &customer.ID

		return errors.Wrap(userRepo.Create(ctx, newUser), "failed to create user during registration")
	})
	if err != nil {
		srv.log(ctx).Warn("Registration with customer failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	srv.log(ctx).Info("User registered with customer", slog.Any("userID", newUser.ID), slog.Any("customerID", customer.ID))

	return &usecase.RegisterOutput{User: newUser, Customer: customer}, nil
}

// Login verifies credentials and issues an access token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting user login", slog.String("username", input.Username))

	user, err := srv.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, errors.Wrap(err, "login failed")
	}

	accessToken, expiresAt, err := srv.tokenService.IssueToken(user)
	if err != nil {
		srv.log(ctx).Error("Failed to issue access token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrTokenIssueFailed, err.Error())
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		ExpiresIn:   srv.tokenService.AccessTokenTTL(),
		User:        user,
	}, nil
}

// Authenticate returns the user when username and password match an active account.
// Every failure is the same InvalidCredentials error.
func (srv *userService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := srv.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Burn the same bcrypt work as a real comparison.
		srv.hasher.Check(password, srv.dummyPasswordHash())

		return nil, errors.WithStack(domainerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user for authentication")
	}

	if !srv.hasher.Check(password, user.HashedPassword) || !user.IsActive {
		return nil, errors.WithStack(domainerrors.ErrInvalidCredentials)
	}

	return user, nil
}

func (srv *userService) dummyPasswordHash() string {
	srv.dummyHashOnce.Do(func() {
		hash, err := srv.hasher.Hash(dummyPasswordSeed)
		if err != nil {
			srv.logger.Error("Failed to prepare dummy password hash", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	return srv.dummyHash
}

// ValidateToken decodes a bearer token into claims.
func (srv *userService) ValidateToken(ctx context.Context, token string) (*entity.Claims, error) {
	claims, err := srv.tokenService.ValidateToken(token)
	if err != nil {
		srv.log(ctx).Debug("Token validation failed", slog.Any("error", err))

		return nil, errors.WithStack(err)
	}

	return claims, nil
}

// LinkCustomer binds a user to a customer that no other user holds.
func (srv *userService) LinkCustomer(ctx context.Context, userID, customerID uint) (*entity.User, error) {
	var linkedUser *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, userID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.WithStack(domainerrors.ErrUserNotFound)
		}
		if err != nil {
			return errors.Wrap(err, "failed to find user")
		}

		if _, err := repoFactory.CustomerRepo().FindByID(ctx, customerID); err != nil {
			if errors.Is(err, repository.ErrCustomerNotFound) {
				return errors.WithStack(domainerrors.ErrCustomerNotFound)
			}
			return errors.Wrap(err, "failed to find customer")
		}

		holder, err := userRepo.FindByCustomerID(ctx, customerID)
		switch {
		case err == nil && holder.ID != user.ID:
			return errors.WithStack(domainerrors.ErrCustomerAlreadyLinked)
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return errors.Wrap(err, "failed to check customer link")
		}

		if err := userRepo.LinkCustomer(ctx, user.ID, customerID); err != nil {
			return errors.Wrap(err, "failed to link customer")
		}

		user.CustomerID = &customerID
		linkedUser = user

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute link customer transaction")
	}

	srv.log(ctx).Info("Linked user to customer", slog.Any("userID", userID), slog.Any("customerID", customerID))

	return linkedUser, nil
}

// EnsureBootstrapAdmin creates the configured administrator when no user holds its username.
func (srv *userService) EnsureBootstrapAdmin(ctx context.Context) error {
	admin := srv.bootstrapAdmin
	if admin == nil || admin.Username == "" || admin.Password == "" {
		srv.logger.Debug("No bootstrap admin configured")

		return nil
	}

	_, err := srv.userRepo.FindByUsername(ctx, admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to look up bootstrap admin")
	}

	email := admin.Email
	if email == "" {
		email = admin.Username
	}

	output, err := srv.Register(ctx, &entity.Claims{Role: entity.RoleAdmin}, &usecase.RegisterInput{
		Username: admin.Username,
		Email:    email,
		Password: admin.Password,
		Role:     entity.RoleAdmin,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create bootstrap admin")
	}

	srv.logger.Info("Bootstrap admin created", slog.Any("userID", output.User.ID), slog.String("username", admin.Username))

	return nil
}

func (srv *userService) buildUser(input *usecase.RegisterInput, role entity.Role) (*entity.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("email and password are required")
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = email
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	return &entity.User{
		Username:       username,
		Email:          email,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Phone:          strings.TrimSpace(input.Phone),
		HashedPassword: hashedPassword,
		Role:           role,
		IsActive:       true,
	}, nil
}

// findLinkableCustomer returns the customer with email unless it is missing or already held by a user.
func (srv *userService) findLinkableCustomer(ctx context.Context, repoFactory repository.RepositoryFactory, email string) (*entity.Customer, error) {
	customer, err := repoFactory.CustomerRepo().FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find customer by email")
	}

	holder, err := repoFactory.UserRepo().FindByCustomerID(ctx, customer.ID)
	if err == nil {
		srv.log(ctx).Warn("Customer with matching email already linked; not linking",
			slog.Any("customerID", customer.ID), slog.Any("holderUserID", holder.ID))

		return nil, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check customer link")
	}

	return customer, nil
}

func ensureUserIsNew(ctx context.Context, userRepo repository.UserRepository, user *entity.User) error {
	if _, err := userRepo.FindByEmail(ctx, user.Email); err == nil {
		return errors.WithStack(domainerrors.ErrDuplicateEmail)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to find user by email")
	}

	if _, err := userRepo.FindByUsername(ctx, user.Username); err == nil {
		return errors.Wrap(domainerrors.ErrDuplicateResource, "username already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to find user by username")
	}

	return nil
}

func resolveRegistrationRole(raw entity.Role) (entity.Role, error) {
	if raw == "" {
		return entity.RoleCustomer, nil
	}
	if !raw.IsValid() {
		return "", domainerrors.ErrValidationFailed.WithDetails("role must be admin or customer")
	}

	return raw, nil
}

func customerNameFor(user *entity.User) string {
	if name := user.FullName(); name != "" {
		return name
	}

	return user.Username
}

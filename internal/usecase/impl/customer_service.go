package impl

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "erp/internal/delivery/context"
	"erp/internal/domain/entity"
	domainerrors "erp/internal/domain/errors"
	"erp/internal/domain/repository"
	"erp/internal/usecase"
)

// customerService implements the CustomerUsecase interface.
type customerService struct {
	txManager    repository.TransactionManager
	customerRepo repository.CustomerRepository
	userRepo     repository.UserRepository
	logger       *slog.Logger
}

// CustomerServiceParams holds dependencies for CustomerService, injected by Fx.
type CustomerServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	CustomerRepo repository.CustomerRepository
	UserRepo     repository.UserRepository
	Logger       *slog.Logger
}

// NewCustomerService is the constructor for customerService.
func NewCustomerService(params CustomerServiceParams) usecase.CustomerUsecase {
	return &customerService{
		txManager:    params.TxManager,
		customerRepo: params.CustomerRepo,
		userRepo:     params.UserRepo,
		logger:       params.Logger,
	}
}

func (srv *customerService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *customerService) List(ctx context.Context, search string) ([]*entity.Customer, error) {
	customers, err := srv.customerRepo.List(ctx, search)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list customers")
	}

	return customers, nil
}

func (srv *customerService) Get(ctx context.Context, id uint) (*entity.Customer, error) {
	return findCustomer(ctx, srv.customerRepo, id)
}

// Create adds an active customer. The email must be unused.
func (srv *customerService) Create(ctx context.Context, input *usecase.CreateCustomerInput) (*entity.Customer, error) {
	customer := &entity.Customer{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		IsActive: true,
	}

	if _, err := srv.customerRepo.FindByEmail(ctx, customer.Email); err == nil {
		return nil, errors.WithStack(domainerrors.ErrDuplicateEmail)
	} else if !errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, errors.Wrap(err, "failed to find customer by email")
	}

	if err := srv.customerRepo.Create(ctx, customer); err != nil {
		return nil, errors.Wrap(err, "failed to create customer")
	}

	srv.log(ctx).Info("Customer created", slog.Any("customerID", customer.ID))

	return customer, nil
}

// Update applies the non-nil fields of input.
func (srv *customerService) Update(ctx context.Context, id uint, input *usecase.UpdateCustomerInput) (*entity.Customer, error) {
	customer, err := findCustomer(ctx, srv.customerRepo, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != customer.Email {
			if other, err := srv.customerRepo.FindByEmail(ctx, email); err == nil && other.ID != customer.ID {
				return nil, errors.WithStack(domainerrors.ErrDuplicateEmail)
			} else if err != nil && !errors.Is(err, repository.ErrCustomerNotFound) {
				return nil, errors.Wrap(err, "failed to find customer by email")
			}
		}
		customer.Email = email
	}
	if input.Name != nil {
		customer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := srv.customerRepo.Update(ctx, customer); err != nil {
		return nil, mapCustomerError(err, "failed to update customer")
	}

	return customer, nil
}

// Delete removes a customer that owns no orders. Users linked to it are unlinked.
func (srv *customerService) Delete(ctx context.Context, id uint, confirm bool) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		customerRepo := repoFactory.CustomerRepo()

		if _, err := findCustomer(ctx, customerRepo, id); err != nil {
			return err
		}
		if !confirm {
			return errors.WithStack(domainerrors.ErrConfirmationRequired)
		}

		orders, err := repoFactory.OrderRepo().CountByCustomer(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to count customer orders")
		}
		if orders > 0 {
			return errors.WithStack(domainerrors.ErrResourceInUse.WithDetails("customer still has orders; deactivate it instead"))
		}

		if err := repoFactory.UserRepo().UnlinkCustomer(ctx, id); err != nil {
			return errors.Wrap(err, "failed to unlink users")
		}

		return mapCustomerError(customerRepo.Delete(ctx, id), "failed to delete customer")
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute delete customer transaction")
	}

	srv.log(ctx).Info("Customer deleted", slog.Any("customerID", id))

	return nil
}

// Deactivate blacklists the customer.
func (srv *customerService) Deactivate(ctx context.Context, id uint) (*entity.Customer, error) {
	customer, err := findCustomer(ctx, srv.customerRepo, id)
	if err != nil {
		return nil, err
	}

	customer.IsActive = false
	if err := srv.customerRepo.Update(ctx, customer); err != nil {
		return nil, mapCustomerError(err, "failed to deactivate customer")
	}

	srv.log(ctx).Info("Customer blacklisted", slog.Any("customerID", id))

	return customer, nil
}

// GetSelf returns the caller's linked customer.
func (srv *customerService) GetSelf(ctx context.Context, claims *entity.Claims) (*entity.Customer, error) {
	customerID, err := linkedCustomerID(ctx, srv.userRepo, claims)
	if err != nil {
		return nil, err
	}

	return findCustomer(ctx, srv.customerRepo, customerID)
}

// UpdateSelf changes name and phone of the caller's customer record. Any other field is refused
// and the record is left untouched.
func (srv *customerService) UpdateSelf(ctx context.Context, claims *entity.Claims, input *usecase.UpdateCustomerInput) (*entity.Customer, error) {
	customerID, err := linkedCustomerID(ctx, srv.userRepo, claims)
	if err != nil {
		return nil, err
	}

	customer, err := findCustomer(ctx, srv.customerRepo, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, errors.WithStack(domainerrors.ErrAccountDeactivated)
	}

	if forbidden := forbiddenSelfFields(input); len(forbidden) > 0 {
		srv.log(ctx).Warn("Self update touched restricted fields", slog.Any("customerID", customerID), slog.Any("fields", forbidden))

		return nil, errors.WithStack(domainerrors.ErrFieldNotAllowed.WithDetails("fields not allowed: " + strings.Join(forbidden, ", ")))
	}

	if input.Name != nil {
		customer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}

	if err := srv.customerRepo.Update(ctx, customer); err != nil {
		return nil, mapCustomerError(err, "failed to update own customer")
	}

	return customer, nil
}

// forbiddenSelfFields names every request key other than name and phone, whatever its value.
func forbiddenSelfFields(input *usecase.UpdateCustomerInput) []string {
	seen := make(map[string]struct{})
	flag := func(field string) {
		if field != "name" && field != "phone" {
			seen[field] = struct{}{}
		}
	}

	for _, field := range input.PresentFields {
		flag(field)
	}
	for _, field := range input.UnknownFields {
		flag(field)
	}
	if input.Email != nil {
		flag("email")
	}
	if input.IsActive != nil {
		flag("is_active")
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return fields
}

// linkedCustomerID reads the caller's current customer link from storage, so a link made after
// the token was issued is honoured.
func linkedCustomerID(ctx context.Context, userRepo repository.UserRepository, claims *entity.Claims) (uint, error) {
	if claims == nil {
		return 0, errors.WithStack(domainerrors.ErrAuthenticationFailed)
	}

	user, err := userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return 0, errors.WithStack(domainerrors.ErrAuthenticationFailed)
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to load caller")
	}

	if !user.HasCustomer() {
		return 0, errors.WithStack(domainerrors.ErrNoLinkedCustomer)
	}

	return *user.CustomerID, nil
}

func findCustomer(ctx context.Context, customerRepo repository.CustomerRepository, id uint) (*entity.Customer, error) {
	customer, err := customerRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, errors.WithStack(domainerrors.ErrCustomerNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find customer")
	}

	return customer, nil
}

func mapCustomerError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return errors.WithStack(domainerrors.ErrCustomerNotFound)
	}

	return errors.Wrap(err, message)
}

package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"backend/internal/model"
	"backend/internal/plan"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type RegisterTenantRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Plan       string `json:"plan" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	FullName   string `json:"full_name" binding:"required"`
	Password   string `json:"password" binding:"required,min=6"`
	TaxCode    string `json:"tax_code"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// OnboardingResponse reports everything tenant registration produced: the
// tenant, its admin user, the root organization, and the entitlement
// reconciliation outcome.
type OnboardingResponse struct {
	TenantID     uuid.UUID            `json:"tenant_id"`
	User         UserResponse         `json:"user"`
	RootOrg      OrganizationResponse `json:"root_organization"`
	Entitlements ReconcileResult      `json:"entitlements"`
	Token        string               `json:"token"`
}

// --- Interface ---

type UserService interface {
	// RegisterTenant onboards a new tenant: tenant row, admin user, root
	// organization, and plan entitlements.
	RegisterTenant(ctx context.Context, req RegisterTenantRequest) (OnboardingResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	CreateUser(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (UserResponse, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	userRepo           repository.UserRepository
	tenantRepo         repository.TenantRepository
	orgService         OrganizationService
	entitlementService EntitlementService
	auditRepo          repository.AuditRepository
	txManager          repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	orgService OrganizationService,
	entitlementService EntitlementService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) UserService {
	return &userService{
		userRepo:           userRepo,
		tenantRepo:         tenantRepo,
		orgService:         orgService,
		entitlementService: entitlementService,
		auditRepo:          auditRepo,
		txManager:          txManager,
	}
}

// Basic email format validation fallback on top of gin's binding
var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

func validUserRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleMember
}

// --- Implementation ---

func (s *userService) RegisterTenant(ctx context.Context, req RegisterTenantRequest) (OnboardingResponse, error) {
	if _, ok := plan.Lookup(req.Plan); !ok {
		return OnboardingResponse{}, apperr.Validation("unknown plan %q", req.Plan)
	}
	if !emailRegex.MatchString(req.Email) {
		return OnboardingResponse{}, apperr.Validation("invalid email format")
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return OnboardingResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return OnboardingResponse{}, apperr.Conflict("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return OnboardingResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	tenant := &model.Tenant{Name: req.TenantName, Plan: req.Plan, IsActive: true}
	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
		IsActive: true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tenantRepo.Create(txCtx, tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		user.TenantID = tenant.ID
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		entry := &model.AuditLog{
			TenantID:   &tenant.ID,
			UserID:     &user.ID,
			Action:     model.ActionRegisterTenant,
			EntityID:   tenant.ID.String(),
			EntityName: tenant.Name,
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return OnboardingResponse{}, err
	}

	// Each of the following steps is atomic on its own; onboarding is an
	// orchestration, not one large transaction.
	rootOrg, err := s.orgService.CreateRoot(ctx, tenant.ID, CreateOrganizationRequest{
		Name:        req.TenantName,
		Description: "Root organization",
		TaxCode:     req.TaxCode,
	}, user.ID)
	if err != nil {
		return OnboardingResponse{}, err
	}

	reconcile, err := s.entitlementService.Reconcile(ctx, tenant.ID, req.Plan, DefaultReconcileOptions(), &user.ID)
	if err != nil {
		return OnboardingResponse{}, err
	}

	token, err := signToken(user)
	if err != nil {
		return OnboardingResponse{}, err
	}

	return OnboardingResponse{
		TenantID:     tenant.ID,
		User:         toUserResponse(*user),
		RootOrg:      rootOrg,
		Entitlements: reconcile,
		Token:        token,
	}, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return TokenResponse{}, apperr.Validation("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, apperr.Validation("invalid email or password")
	}

	token, err := signToken(user)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{Token: token}, nil
}

func (s *userService) CreateUser(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (UserResponse, error) {
	if !validUserRole(req.Role) {
		return UserResponse{}, apperr.Validation("role must be admin or member")
	}
	if !emailRegex.MatchString(req.Email) {
		return UserResponse{}, apperr.Validation("invalid email format")
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return UserResponse{}, apperr.Conflict("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		TenantID: tenantID,
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashedPassword),
		Role:     req.Role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return UserResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	return toUserResponse(*user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return UserResponse{}, apperr.NotFound("user %s not found", id)
	}
	return toUserResponse(*user), nil
}

func (s *userService) ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.userRepo.ListByTenant(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u))
	}
	return res, total, nil
}

// --- Helpers ---

func signToken(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    user.ID.String(),
		"tenant": user.TenantID.String(),
		"role":   user.Role,
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

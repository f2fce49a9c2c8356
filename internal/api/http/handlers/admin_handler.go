package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// AdminHandler exposes admin-only operations: triage configuration and
// account provisioning.
type AdminHandler struct {
	configs  *service.ConfigService
	accounts *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(configService *service.ConfigService, authService *service.AuthService) *AdminHandler {
	return &AdminHandler{configs: configService, accounts: authService}
}

// GetTriageConfig GET /admin/triage-config.
func (h *AdminHandler) GetTriageConfig(c *fiber.Ctx) error {
	cfg, err := h.configs.GetConfig(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTriageConfigResponse(cfg)})
}

// UpdateTriageConfig PUT /admin/triage-config.
func (h *AdminHandler) UpdateTriageConfig(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTriageConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	cfg, err := h.configs.UpdateConfig(c.UserContext(), service.TriageConfigUpdate{
		AutoCloseEnabled:    req.AutoCloseEnabled,
		ConfidenceThreshold: req.ConfidenceThreshold,
		CategoryThresholds:  req.DomainThresholds(),
		SLAHours:            req.SLAHours,
		MaxRetries:          req.MaxRetries,
		RetryBackoffMS:      req.RetryBackoffMS,
		TimeoutMS:           req.TimeoutMS,
	}, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTriageConfigResponse(cfg)})
}

// CreateAccount POST /admin/accounts.
func (h *AdminHandler) CreateAccount(c *fiber.Ctx) error {
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.accounts.CreateAccount(c.UserContext(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

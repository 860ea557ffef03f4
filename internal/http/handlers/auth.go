package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mpetrov/anisync/internal/malauth"
)

// pendingTTL bounds how long an issued authorization URL stays redeemable.
const pendingTTL = 10 * time.Minute

type pendingAuth struct {
	verifier  string
	expiresAt time.Time
}

type AuthHandler struct {
	auth    *malauth.Authenticator
	manager *malauth.Manager
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingAuth
}

func NewAuthHandler(auth *malauth.Authenticator, manager *malauth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		manager: manager,
		logger:  logger,
		pending: make(map[string]pendingAuth),
	}
}

// Login issues a fresh authorization URL. The PKCE verifier is kept
// server-side, keyed by state, until the callback redeems it.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := malauth.NewState()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate state")
	}
	verifier, err := malauth.NewVerifier()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verifier")
	}

	h.mu.Lock()
	now := time.Now()
	for s, p := range h.pending {
		if now.After(p.expiresAt) {
			delete(h.pending, s)
		}
	}
	h.pending[state] = pendingAuth{verifier: verifier, expiresAt: now.Add(pendingTTL)}
	h.mu.Unlock()

	return c.JSON(fiber.Map{
		"authorizationUrl": h.auth.AuthCodeURL(state, verifier),
	})
}

func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "missing code or state",
		})
	}

	h.mu.Lock()
	p, ok := h.pending[state]
	delete(h.pending, state)
	h.mu.Unlock()

	if !ok || time.Now().After(p.expiresAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "unknown or expired state",
		})
	}

	cred, err := h.auth.Exchange(c.Context(), code, p.verifier)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "token exchange failed",
		})
	}

	if err := h.manager.SetCredential(cred); err != nil {
		h.logger.Error("failed to store credential", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "failed to store credential",
		})
	}

	return c.JSON(fiber.Map{
		"message":   "authenticated",
		"expiresAt": cred.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *AuthHandler) Status(c *fiber.Ctx) error {
	authenticated, expiresAt := h.manager.Status()
	resp := fiber.Map{"authenticated": authenticated}
	if authenticated && !expiresAt.IsZero() {
		resp["expiresAt"] = expiresAt.Format(time.RFC3339)
	}
	return c.JSON(resp)
}

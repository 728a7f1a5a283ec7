package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/adapter/middleware"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/usecase/identity"
)

type UserHandler struct {
	resolver *identity.Resolver
	log      logrus.FieldLogger
}

func NewUserHandler(resolver *identity.Resolver, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{resolver: resolver, log: log}
}

// profileReq lets a caller fill contact fields the token does not carry.
type profileReq struct {
	Email    string `json:"email"     validate:"omitempty,email"`
	Phone    string `json:"phone"     validate:"max=32"`
	FullName string `json:"full_name" validate:"max=255"`
}

// SyncMe upserts the internal user for the token subject.
func (h *UserHandler) SyncMe(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req profileReq
	if c.Request().ContentLength != 0 {
		if done, err := bind(c, &req); done {
			return err
		}
	}
	in := identity.SyncInput{ExternalID: sub, Email: req.Email, Phone: req.Phone, FullName: req.FullName}
	if cl := middleware.ClaimsFrom(c); cl != nil {
		in.Email = firstSet(in.Email, cl.Email)
		in.Phone = firstSet(in.Phone, cl.Phone)
		in.FullName = firstSet(in.FullName, cl.Name)
		in.Role = roleClaim(cl.Role)
	}
	u, err := h.resolver.Sync(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// roleClaim accepts only known roles; anything else leaves the stored role alone.
func roleClaim(raw string) user.Role {
	switch r := user.Role(raw); r {
	case user.RoleBorrower, user.RoleOfficer, user.RoleAdmin:
		return r
	}
	return ""
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

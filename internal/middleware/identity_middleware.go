package middleware

import (
	"net/http"
	"strings"

	"go-attendance/internal/shared/apperror"
	"go-attendance/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderCompanyID  = "X-Company-ID"
	HeaderEmployeeID = "X-Employee-ID"
	HeaderRole       = "X-Role"
)

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleHR         = "HR"
	RoleManager    = "MANAGER"
	RoleEmployee   = "EMPLOYEE"
)

// AdminRoles may run corrections and log queries.
var AdminRoles = []string{RoleSuperAdmin, RoleAdmin, RoleHR, RoleManager}

// Identity trusts the identity headers set by the upstream gateway and
// copies them into the gin context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := strings.TrimSpace(c.GetHeader(HeaderCompanyID))
		employeeID := strings.TrimSpace(c.GetHeader(HeaderEmployeeID))

		if companyID == "" || employeeID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Identity headers not found", nil)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(companyID); err != nil {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Invalid company id header", nil)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(employeeID); err != nil {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Invalid employee id header", nil)
			c.Abort()
			return
		}

		role := strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderRole)))
		if role == "" {
			role = RoleEmployee
		}

		c.Set("company_id", companyID)
		c.Set("employee_id", employeeID)
		c.Set("role", role)

		c.Next()
	}
}

func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.Error(c, apperror.ErrForbidden.HTTPStatus, apperror.ErrForbidden.Code, apperror.ErrForbidden.Message, nil)
		c.Abort()
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/response"
	"github.com/skillstage/skillstage-backend/internal/service"
)

// CertificateHandler serves issued certificates.
type CertificateHandler struct {
	certificateService *service.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificateService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// ListCertificates godoc
// GET /api/v1/certificates
// Lists the requesting user's certificates, newest first.
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	claims := middleware.GetClaims(c)

	certs, err := h.certificateService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	if certs == nil {
		certs = []model.Certificate{}
	}

	response.Success(c, http.StatusOK, gin.H{"certificates": certs})
}

// GetCertificate godoc
// GET /api/v1/certificates/:id
// Returns one certificate. Admins may read anyone's.
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cert, err := h.certificateService.Get(c.Request.Context(), claims.UserID, claims.Role == model.RoleAdmin, id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificate": cert})
}

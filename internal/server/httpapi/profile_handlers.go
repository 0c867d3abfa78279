package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/fundconnector/internal/server/models"
	"github.com/dmitrijs2005/fundconnector/internal/server/services"
)

func (s *Server) handleGetProfile(c *gin.Context) {
	p, err := s.Profiles.Get(c.Request.Context(), currentAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleUpdateProfile decodes the body as the patch type of the caller's
// role; fields of the other role are ignored.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	account := currentAccount(c)

	var patch services.ProfilePatch
	var err error
	switch account.Role {
	case models.RoleFund:
		patch.Fund = &models.FundProfilePatch{}
		err = c.ShouldBindJSON(patch.Fund)
	case models.RoleLP:
		patch.LP = &models.LPProfilePatch{}
		err = c.ShouldBindJSON(patch.LP)
	}
	if err != nil {
		abortWithError(c, bindError(err))
		return
	}

	p, err := s.Profiles.Update(c.Request.Context(), account, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeckUpload(c *gin.Context) {
	key, url, err := s.Documents.DeckUploadURL(c.Request.Context(), currentAccount(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

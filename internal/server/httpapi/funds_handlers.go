package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/server/models"
)

// fundFilterFromQuery reads the directory query string. Blank parameters are
// treated as absent.
func fundFilterFromQuery(c *gin.Context) (models.FundFilter, error) {
	f := models.FundFilter{
		Search:       c.Query("search"),
		FundType:     models.FundType(strings.TrimSpace(c.Query("fundType"))),
		RiskLevel:    models.RiskLevel(strings.TrimSpace(c.Query("riskLevel"))),
		Jurisdiction: c.Query("jurisdiction"),
	}

	var err error
	if f.Page, err = queryInt(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	if f.MinAUM, err = models.ParseOptionalNumber(c.Query("minAUM")); err != nil {
		return f, err
	}
	if f.MaxAUM, err = models.ParseOptionalNumber(c.Query("maxAUM")); err != nil {
		return f, err
	}
	if f.MinReturn, err = models.ParseOptionalNumber(c.Query("minReturn")); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, name)
	}
	if n == 0 {
		// explicit zero is out of range, not "use the default"
		return -1, nil
	}
	return n, nil
}

func (s *Server) handleListFunds(c *gin.Context) {
	f, err := fundFilterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, err := s.Directory.Search(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleDeckDownload(c *gin.Context) {
	url, err := s.Documents.DeckDownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

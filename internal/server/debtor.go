package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	overviewdomain "github.com/smallbiznis/paynest/internal/overview/domain"
)

func (s *Server) customerSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := s.overviewSvc.CustomerSummary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) categorizedDebts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	debts, err := s.overviewSvc.CategorizedDebts(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, debts)
}

// listScope parses the optional manager_id and as_of query params
// shared by the debtor listings.
func listScope(c *gin.Context) (managerID *snowflake.ID, asOf *time.Time, ok bool) {
	if raw := c.Query("manager_id"); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, overviewdomain.ErrInvalidFilter)
			return nil, nil, false
		}
		managerID = &id
	}
	if raw := c.Query("as_of"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			at, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			AbortWithError(c, overviewdomain.ErrInvalidFilter)
			return nil, nil, false
		}
		asOf = &at
	}
	return managerID, asOf, true
}

func (s *Server) listDebtors(c *gin.Context) {
	debts, err := s.overviewSvc.ListDebtors(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debts})
}

func (s *Server) listAllDebtors(c *gin.Context) {
	managerID, asOf, ok := listScope(c)
	if !ok {
		return
	}
	debts, err := s.overviewSvc.ListAllDebtors(c.Request.Context(), managerID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debts})
}

func (s *Server) listUnpaidDebtors(c *gin.Context) {
	managerID, asOf, ok := listScope(c)
	if !ok {
		return
	}
	debts, err := s.overviewSvc.ListUnpaidDebtors(c.Request.Context(), managerID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debts})
}

func (s *Server) listPaidDebtors(c *gin.Context) {
	managerID, _, ok := listScope(c)
	if !ok {
		return
	}
	debts, err := s.overviewSvc.ListPaidDebtors(c.Request.Context(), managerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debts})
}

func (s *Server) listOverdueContracts(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		AbortWithError(c, overviewdomain.ErrInvalidMonth)
		return
	}
	monthNum, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		AbortWithError(c, overviewdomain.ErrInvalidMonth)
		return
	}

	debts, err := s.overviewSvc.ListOverdueContracts(c.Request.Context(), year, time.Month(monthNum))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debts})
}

func (s *Server) declareDebtors(c *gin.Context) {
	var req struct {
		ContractIDs []snowflake.ID `json:"contract_ids" binding:"required"`
		CreatedBy   snowflake.ID   `json:"created_by"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, debtordomain.ErrNoContracts)
		return
	}

	report, err := s.debtorSvc.Declare(c.Request.Context(), req.ContractIDs, req.CreatedBy)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) materialize(c *gin.Context) {
	report, err := s.debtorSvc.Materialize(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

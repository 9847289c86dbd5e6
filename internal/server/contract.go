package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
)

func (s *Server) createContract(c *gin.Context) {
	var req contractdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, contractdomain.ErrInvalidContract)
		return
	}

	contract, err := s.contractSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (s *Server) listContracts(c *gin.Context) {
	var req contractdomain.ListContractRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, contractdomain.ErrInvalidContract)
		return
	}

	resp, err := s.contractSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contract, err := s.contractSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (s *Server) updateContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req contractdomain.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, contractdomain.ErrInvalidContract)
		return
	}

	contract, err := s.contractSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (s *Server) softDeleteContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.contractSvc.SoftDelete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) hardDeleteContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.contractSvc.HardDelete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) refreshCompletion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	contract, err := s.contractSvc.RefreshCompletion(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (s *Server) listContractPayments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payments, err := s.paymentSvc.ListByContract(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) listContractDebtors(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	debtors, err := s.debtorSvc.ListByContract(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debtors": debtors})
}

package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
)

func parseID(c *gin.Context, param string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(param))
	if err != nil {
		AbortWithError(c, customerdomain.ErrInvalidCustomer)
		return 0, false
	}
	return id, true
}

func (s *Server) createCustomer(c *gin.Context) {
	var req customerdomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, customerdomain.ErrInvalidCustomer)
		return
	}

	customer, err := s.customerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (s *Server) listCustomers(c *gin.Context) {
	var req customerdomain.ListCustomerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, customerdomain.ErrInvalidCustomer)
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	customer, err := s.customerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *Server) updateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req customerdomain.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, customerdomain.ErrInvalidCustomer)
		return
	}

	customer, err := s.customerSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *Server) deleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.customerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createEmployee(c *gin.Context) {
	var req customerdomain.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, customerdomain.ErrInvalidCustomer)
		return
	}

	employee, err := s.customerSvc.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (s *Server) listEmployees(c *gin.Context) {
	employees, err := s.customerSvc.ListEmployees(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

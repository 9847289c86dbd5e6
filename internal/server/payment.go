package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
)

func (s *Server) confirmPayment(c *gin.Context) {
	var req paymentdomain.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayment)
		return
	}

	resp, err := s.paymentSvc.Confirm(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) reversePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.Reverse(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) markPaymentPending(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.MarkPending(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) setReminder(c *gin.Context) {
	var req paymentdomain.SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayment)
		return
	}

	payment, err := s.paymentSvc.SetReminder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) clearReminder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.ClearReminder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) contractPrepaidHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	records, err := s.prepaidSvc.ContractHistory(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) contractPrepaidStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := s.prepaidSvc.ContractStats(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) updatePrepaidNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, prepaiddomain.ErrInvalidRecord)
		return
	}

	record, err := s.prepaidSvc.UpdateNote(c.Request.Context(), id, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) deletePrepaidRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.prepaidSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listBalances(c *gin.Context) {
	balances, err := s.balanceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

func (s *Server) getBalance(c *gin.Context) {
	id, ok := parseID(c, "manager_id")
	if !ok {
		return
	}

	balance, err := s.balanceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

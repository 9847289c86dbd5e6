package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	"github.com/smallbiznis/paynest/internal/config"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	overviewdomain "github.com/smallbiznis/paynest/internal/overview/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
	"github.com/smallbiznis/paynest/internal/ratelimit"
	"github.com/smallbiznis/paynest/internal/scheduler"
	"github.com/smallbiznis/paynest/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log, metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger, metrics *telemetry.Metrics) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		metrics.ObserveAPIRequest(c.Request.Method, http.StatusText(c.Writer.Status()), elapsed)
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
		)
	}
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	genID       *snowflake.Node
	customerSvc customerdomain.Service
	contractSvc contractdomain.Service
	paymentSvc  paymentdomain.Service
	prepaidSvc  prepaiddomain.Service
	balanceSvc  balancedomain.Service
	debtorSvc   debtordomain.Service
	overviewSvc overviewdomain.Service
	auditSvc    auditdomain.Service
	scheduler   *scheduler.Scheduler
	limiter     *ratelimit.TokenBucket
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	GenID       *snowflake.Node
	CustomerSvc customerdomain.Service
	ContractSvc contractdomain.Service
	PaymentSvc  paymentdomain.Service
	PrepaidSvc  prepaiddomain.Service
	BalanceSvc  balancedomain.Service
	DebtorSvc   debtordomain.Service
	OverviewSvc overviewdomain.Service
	AuditSvc    auditdomain.Service
	Scheduler   *scheduler.Scheduler   `optional:"true"`
	Limiter     *ratelimit.TokenBucket `optional:"true"`
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		genID:       p.GenID,
		customerSvc: p.CustomerSvc,
		contractSvc: p.ContractSvc,
		paymentSvc:  p.PaymentSvc,
		prepaidSvc:  p.PrepaidSvc,
		balanceSvc:  p.BalanceSvc,
		debtorSvc:   p.DebtorSvc,
		overviewSvc: p.OverviewSvc,
		auditSvc:    p.AuditSvc,
		scheduler:   p.Scheduler,
		limiter:     p.Limiter,
		log:         p.Log.Named("server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(ratelimit.Middleware(s.limiter, s.cfg.APIRateRPS, s.cfg.APIRateBurst, s.log))
	v1.Use(requestInfo())

	customers := v1.Group("/customers")
	customers.POST("", s.createCustomer)
	customers.GET("", s.listCustomers)
	customers.GET("/:id", s.getCustomer)
	customers.PATCH("/:id", s.updateCustomer)
	customers.DELETE("/:id", s.deleteCustomer)
	customers.GET("/:id/summary", s.customerSummary)
	customers.GET("/:id/debts", s.categorizedDebts)

	employees := v1.Group("/employees")
	employees.POST("", s.createEmployee)
	employees.GET("", s.listEmployees)

	contracts := v1.Group("/contracts")
	contracts.POST("", s.createContract)
	contracts.GET("", s.listContracts)
	contracts.GET("/:id", s.getContract)
	contracts.PATCH("/:id", s.updateContract)
	contracts.DELETE("/:id", s.softDeleteContract)
	contracts.DELETE("/:id/purge", s.hardDeleteContract)
	contracts.POST("/:id/refresh-completion", s.refreshCompletion)
	contracts.GET("/:id/payments", s.listContractPayments)
	contracts.GET("/:id/prepaid", s.contractPrepaidHistory)
	contracts.GET("/:id/prepaid/stats", s.contractPrepaidStats)
	contracts.GET("/:id/debtors", s.listContractDebtors)

	payments := v1.Group("/payments")
	payments.POST("/confirm", s.confirmPayment)
	payments.POST("/:id/reverse", s.reversePayment)
	payments.POST("/:id/pending", s.markPaymentPending)
	payments.POST("/reminder", s.setReminder)
	payments.DELETE("/:id/reminder", s.clearReminder)

	prepaid := v1.Group("/prepaid")
	prepaid.PATCH("/:id/note", s.updatePrepaidNote)
	prepaid.DELETE("/:id", s.deletePrepaidRecord)

	debtors := v1.Group("/debtors")
	debtors.GET("", s.listDebtors)
	debtors.GET("/all", s.listAllDebtors)
	debtors.GET("/unpaid", s.listUnpaidDebtors)
	debtors.GET("/paid", s.listPaidDebtors)
	debtors.GET("/monthly", s.listOverdueContracts)
	debtors.POST("/declare", s.declareDebtors)
	debtors.POST("/materialize", s.materialize)

	balances := v1.Group("/balances")
	balances.GET("", s.listBalances)
	balances.GET("/:manager_id", s.getBalance)

	auditLogs := v1.Group("/audit-logs")
	auditLogs.GET("", s.listAuditLogs)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

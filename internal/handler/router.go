package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/metrics"
	"github.com/xxxsen/civiclens/internal/middleware"
	"github.com/xxxsen/civiclens/internal/search"
)

type RouterDeps struct {
	Search          *SearchHandler
	Finance         *FinanceHandler
	Dashboard       *DashboardHandler
	Bills           *BillHandler
	Admin           *AdminHandler
	AdminJWTSecret  []byte
	SearchRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	searchLimit := middleware.RateLimit(deps.SearchRateLimit, middleware.WithRejectData(func() interface{} {
		return search.RateLimitedResponse()
	}))
	api.POST("/search", searchLimit, deps.Search.Search)
	api.POST("/finance/money-flow", deps.Finance.MoneyFlow)

	api.GET("/dashboard/finance", deps.Dashboard.Finance)
	api.GET("/dashboard/news", deps.Dashboard.News)
	api.GET("/dashboard/lobbying", deps.Dashboard.Lobbying)
	api.GET("/dashboard/state-bills", deps.Dashboard.StateBills)
	api.GET("/members/:bioguide/bills", deps.Dashboard.MemberBills)

	api.GET("/bills/:congress/:type/:number", deps.Bills.Get)
	api.GET("/index/stats", deps.Bills.IndexStats)

	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(deps.AdminJWTSecret, middleware.RoleAdmin))
	admin.POST("/reindex", deps.Admin.Reindex)

	api.GET("/metrics", metrics.Handler())
}

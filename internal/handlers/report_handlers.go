package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the sales reports.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDailyReport returns the totals for ?date=YYYY-MM-DD, today when omitted.
func (h *ReportHandler) GetDailyReport(c *gin.Context) {
	report, err := h.reportService.DailyReport(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondServiceError(c, "GetDailyReport", err, "Failed to build daily report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// intQuery reads an optional integer query parameter. Absent means 0. On a malformed value it
// writes the 400 response and returns false.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondValidationFailed(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

// GetMonthlyReport returns the totals for ?year=&month=, the current month when omitted.
func (h *ReportHandler) GetMonthlyReport(c *gin.Context) {
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		return
	}
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	report, err := h.reportService.MonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		respondServiceError(c, "GetMonthlyReport", err, "Failed to build monthly report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetTopProducts ranks products by revenue over ?days= (default 7), at most ?limit= rows.
func (h *ReportHandler) GetTopProducts(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	report, err := h.reportService.TopProducts(c.Request.Context(), days, limit)
	if err != nil {
		respondServiceError(c, "GetTopProducts", err, "Failed to build top products report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetDiscountReport(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	report, err := h.reportService.DiscountReport(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, "GetDiscountReport", err, "Failed to build discount report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetTransactionTypeReport compares POS and kiosk sales.
func (h *ReportHandler) GetTransactionTypeReport(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	report, err := h.reportService.ChannelReport(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, "GetTransactionTypeReport", err, "Failed to build transaction type report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetHourlyTrend(c *gin.Context) {
	trend, err := h.reportService.HourlyTrend(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondServiceError(c, "GetHourlyTrend", err, "Failed to build hourly trend.")
		return
	}
	c.JSON(http.StatusOK, trend)
}

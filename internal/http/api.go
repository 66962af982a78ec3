package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"home-budget/internal/auth"
	"home-budget/internal/domain"
	"home-budget/internal/repository"
	"home-budget/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users      service.UserService
	categories service.CategoryService
	expenses   service.ExpenseService
	reports    service.ReportService
	exports    service.ExportService
	tokens     *auth.TokenService
	logger     *logrus.Logger
}

func NewHandler(
	users service.UserService,
	categories service.CategoryService,
	expenses service.ExpenseService,
	reports service.ReportService,
	exports service.ExportService,
	tokens *auth.TokenService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:      users,
		categories: categories,
		expenses:   expenses,
		reports:    reports,
		exports:    exports,
		tokens:     tokens,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(loggingMiddleware(h.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/me", authMiddleware(h.tokens, h.users), h.me)
	}

	requireUser := authMiddleware(h.tokens, h.users)

	categories := router.Group("/categories", requireUser)
	{
		categories.POST("", h.createCategory)
		categories.GET("", h.listCategories)
		categories.PUT("/:id", h.updateCategory)
		categories.DELETE("/:id", h.deleteCategory)
	}

	expenses := router.Group("/expenses", requireUser)
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listExpenses)
		expenses.POST("/export", h.exportExpenses)
		expenses.GET("/exports", h.listExports)
		expenses.GET("/:id", h.getExpense)
		expenses.PUT("/:id", h.updateExpense)
		expenses.DELETE("/:id", h.deleteExpense)
	}

	reports := router.Group("/reports", requireUser)
	{
		reports.GET("/balance", h.balance)
		reports.GET("/summary", h.summary)
	}
}

// respondError maps service errors onto the response taxonomy: 400 for
// malformed or duplicate input, 401 for anything credential-shaped, 404 for
// absent-or-not-owned, 500 otherwise with no internal detail leaked.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validation service.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateCategory),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrExportNotConfigured),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(currentUser(c)))
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categories.Create(c.Request.Context(), currentUser(c).ID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, categoryToResponse(*category))
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]CategoryResponse, len(categories))
	for i := range categories {
		resp[i] = categoryToResponse(categories[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categories.Update(c.Request.Context(), currentUser(c).ID, id, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, categoryToResponse(*category))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type expenseRequest struct {
	Description string        `json:"description" binding:"required"`
	Amount      domain.Amount `json:"amount" binding:"required"`
	Date        domain.Date   `json:"date" binding:"required"`
	CategoryID  int64         `json:"category_id" binding:"required"`
}

func (r expenseRequest) toInput() service.ExpenseInput {
	return service.ExpenseInput{
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.Date,
		CategoryID:  r.CategoryID,
	}
}

func (h *Handler) createExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.Create(c.Request.Context(), currentUser(c).ID, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expenseToResponse(*expense))
}

func (h *Handler) getExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenseToResponse(*expense))
}

func (h *Handler) updateExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.expenses.Update(c.Request.Context(), currentUser(c).ID, id, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenseToResponse(*expense))
}

func (h *Handler) deleteExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listExpenses(c *gin.Context) {
	filter, ok := h.expenseFilter(c)
	if !ok {
		return
	}

	expenses, err := h.expenses.List(c.Request.Context(), currentUser(c).ID, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		resp[i] = expenseToResponse(expenses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportExpenses(c *gin.Context) {
	filter, ok := h.expenseFilter(c)
	if !ok {
		return
	}

	location, err := h.exports.ExportExpenses(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": location})
}

func (h *Handler) listExports(c *gin.Context) {
	objects, err := h.exports.ListExports(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ExportObjectResponse, len(objects))
	for i, obj := range objects {
		resp[i] = ExportObjectResponse{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil {
			resp[i].LastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) balance(c *gin.Context) {
	report, err := h.reports.Balance(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		StartingBalance: report.StartingBalance,
		TotalExpenses:   report.TotalExpenses,
		Balance:         report.Balance,
	})
}

func (h *Handler) summary(c *gin.Context) {
	spec := service.PeriodSpec{
		Kind: c.Query("period"),
		Year: time.Now().UTC().Year(),
	}

	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		spec.Year = year
	}
	if v := c.Query("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		spec.Month = &month
	}
	if v := c.Query("quarter"); v != "" {
		quarter, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quarter"})
			return
		}
		spec.Quarter = &quarter
	}

	report, err := h.reports.Summary(c.Request.Context(), currentUser(c).ID, spec)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := SummaryResponse{
		Period:         report.Period,
		Start:          report.Start,
		End:            report.End,
		TotalExpenses:  report.TotalExpenses,
		CategoryTotals: make([]CategoryTotalResponse, len(report.CategoryTotals)),
	}
	for i, t := range report.CategoryTotals {
		resp.CategoryTotals[i] = CategoryTotalResponse{
			CategoryID: t.CategoryID,
			Name:       t.Name,
			Total:      t.Total,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// expenseFilter parses the optional list-filter query parameters. On a
// malformed value it writes a 400 and returns ok=false.
func (h *Handler) expenseFilter(c *gin.Context) (repository.ExpenseFilter, bool) {
	var filter repository.ExpenseFilter

	if v := c.Query("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return filter, false
		}
		filter.CategoryID = &id
	}
	if v := c.Query("amount_min"); v != "" {
		amount, err := domain.ParseAmount(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_min"})
			return filter, false
		}
		filter.AmountMin = &amount
	}
	if v := c.Query("amount_max"); v != "" {
		amount, err := domain.ParseAmount(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_max"})
			return filter, false
		}
		filter.AmountMax = &amount
	}
	if v := c.Query("date_from"); v != "" {
		date, err := domain.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
			return filter, false
		}
		filter.DateFrom = &date
	}
	if v := c.Query("date_to"); v != "" {
		date, err := domain.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
			return filter, false
		}
		filter.DateTo = &date
	}
	filter.Search = c.Query("q")

	return filter, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ExpenseResponse struct {
	ID          int64         `json:"id"`
	Description string        `json:"description"`
	Amount      domain.Amount `json:"amount"`
	Date        domain.Date   `json:"date"`
	CategoryID  int64         `json:"category_id"`
}

type ExportObjectResponse struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

type BalanceResponse struct {
	StartingBalance domain.Amount `json:"starting_balance"`
	TotalExpenses   domain.Amount `json:"total_expenses"`
	Balance         domain.Amount `json:"balance"`
}

type CategoryTotalResponse struct {
	CategoryID int64         `json:"category_id"`
	Name       string        `json:"name"`
	Total      domain.Amount `json:"total"`
}

type SummaryResponse struct {
	Period         string                  `json:"period"`
	Start          domain.Date             `json:"start"`
	End            domain.Date             `json:"end"`
	TotalExpenses  domain.Amount           `json:"total_expenses"`
	CategoryTotals []CategoryTotalResponse `json:"category_totals"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func categoryToResponse(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:   category.ID,
		Name: category.Name,
	}
}

func expenseToResponse(expense domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          expense.ID,
		Description: expense.Description,
		Amount:      expense.Amount,
		Date:        expense.Date,
		CategoryID:  expense.CategoryID,
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/middleware"
)

// bookHandler handles HTTP requests for the aggregate book view.
type bookHandler struct {
	bookService portssvc.BookSvcFacade
}

// registerBookRoutes registers the book route.
func registerBookRoutes(rg *gin.RouterGroup, bookService portssvc.BookSvcFacade) {
	h := &bookHandler{bookService: bookService}
	rg.GET("/book", h.getBook)
}

// getBook godoc
// @Summary Get the book
// @Description Returns all accounts and budgets plus the total balance of the non-extern accounts; with full=true the transactions are included
// @Tags book
// @Produce  json
// @Param   full query bool false "Include transactions" default(false)
// @Success 200 {object} dto.BookResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to retrieve book"
// @Router /book [get]
func (h *bookHandler) getBook(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.GetBookParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetBook", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	book, err := h.bookService.GetBook(c.Request.Context(), params.Full)
	if err != nil {
		logger.Error("Failed to get book from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve book"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBookResponse(book))
}

package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zulandar/waybill/internal/index"
	"github.com/zulandar/waybill/internal/service"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, svc *service.Service) {
	router.GET("/", handleIndex())
	router.GET("/api/board", handleBoard(svc))
	router.GET("/api/items", handleItems(db))
	router.GET("/api/events", handleSSE(db))
}

func handleIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "board.html", gin.H{})
	}
}

// boardColumn is the JSON shape of one column in the board payload.
type boardColumn struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	WIPLimit int    `json:"wip_limit,omitempty"`
	OverWIP  bool   `json:"over_wip"`
}

func handleBoard(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		board, err := svc.Board()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		counts := board.ColumnCounts()
		columns := make([]boardColumn, 0, len(board.Columns))
		for _, col := range board.Columns {
			count := counts[col.ID]
			columns = append(columns, boardColumn{
				ID:       col.ID,
				Name:     col.Name,
				Count:    count,
				WIPLimit: col.WIPLimit,
				OverWIP:  col.OverWIP(count),
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"name":    board.Name,
			"columns": columns,
			"total":   len(board.Items),
		})
	}
}

func handleItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")

		var recs []index.ItemRecord
		var err error
		if status != "" {
			recs, err = index.ByStatus(db, status)
		} else {
			recs, err = index.All(db)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zulandar/waybill/internal/index"
)

// boardEvent holds data for a board-changed SSE event.
type boardEvent struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// handleSSE streams board changes by polling the item index for
// per-status count deltas.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Tests use a nil DB.
		if db == nil {
			return
		}

		lastCounts, _ := index.StatusCounts(db)

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				counts, err := index.StatusCounts(db)
				if err != nil {
					continue
				}
				if reflect.DeepEqual(counts, lastCounts) {
					continue
				}
				lastCounts = counts

				var total int64
				for _, n := range counts {
					total += n
				}
				writeSSE(c.Writer, "board", boardEvent{Counts: counts, Total: total})
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

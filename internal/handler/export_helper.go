package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
	"github.com/dimasfarhan/ppl-placement-api/pkg/response"
)

func writeCSV(c *gin.Context, exporter *export.CSVExporter, filename string, dataset export.Dataset) {
	payload, err := exporter.Render(dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

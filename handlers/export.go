package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"opsecho/models"
	"opsecho/views"
)

const (
	exportSheet      = "Incidents"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeLayout = "2006-01-02 15:04"
)

// IncidentExportHeader lists the columns of the incident workbook
var IncidentExportHeader = []string{
	"Group", "ID", "Title", "Severity", "Status", "Type", "Site", "Unit",
	"Priority", "Risk Score", "Created At", "Resolve By", "Overdue",
}

var exportColumnWidths = []float64{16, 22, 40, 12, 14, 14, 18, 16, 10, 12, 18, 18, 10}

// ExportIncidents downloads the incident table as an XLSX workbook.
// It accepts the same sort, dir and group parameters as the incident view.
func (h *Handler) ExportIncidents(c *gin.Context) {
	sort, group, err := incidentQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid query", err)
		return
	}

	now := h.now()
	table := views.BuildIncidentTable(h.store.State(), sort, group, now)
	data, err := GenerateIncidentWorkbook(table, now)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to export incidents", err)
		return
	}

	filename := fmt.Sprintf("incidents-%s.xlsx", now.UTC().Format("20060102-1504"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GenerateIncidentWorkbook renders table as a single-sheet workbook
func GenerateIncidentWorkbook(table views.IncidentTable, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(IncidentExportHeader))
	for i, title := range IncidentExportHeader {
		header[i] = title
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(IncidentExportHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2
	for _, g := range table.Groups {
		for _, incident := range g.Incidents {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			values := incidentRow(g.Key, incident, now)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func incidentRow(group string, incident models.Incident, now time.Time) []interface{} {
	incident.RefreshSLA(now)
	overdue := "No"
	if incident.SLA.IsOverdue {
		overdue = "Yes"
	}
	return []interface{}{
		group,
		incident.ID,
		incident.Title,
		string(incident.Severity),
		string(incident.Status),
		string(incident.Type),
		incident.Site,
		incident.Unit,
		incident.Priority,
		incident.RiskScore,
		incident.CreatedAt.UTC().Format(exportTimeLayout),
		incident.SLA.ResolveBy.UTC().Format(exportTimeLayout),
		overdue,
	}
}

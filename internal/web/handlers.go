package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"attenddash/internal/backend"
	"attenddash/internal/export"
	"attenddash/internal/session"
	"attenddash/internal/view"
)

// dashboard shows the admin landing page with the most recent records.
func (s *Server) dashboard(c *gin.Context) {
	cred, _ := session.Credential(c)

	records, errMsg, handled := s.fetchRecords(c)
	if handled {
		return
	}
	if len(records) > 10 {
		records = records[:10]
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":  "Dashboard - Smart Attendance",
		"Admin":  cred.Admin,
		"Table":  view.Build(records),
		"Error":  errMsg,
		"Notice": c.Query("notice"),
	})
}

// attendance shows the full record table with the name filter. A q query
// parameter pre-applies the filter server-side; keystrokes after page load
// only toggle row visibility locally.
func (s *Server) attendance(c *gin.Context) {
	cred, _ := session.Credential(c)

	records, errMsg, handled := s.fetchRecords(c)
	if handled {
		return
	}

	table := view.Build(records)
	q := c.Query("q")
	if q != "" {
		table = table.Filter(q)
	}

	c.HTML(http.StatusOK, "attendance.html", gin.H{
		"Title": "Attendance Records - Smart Attendance",
		"Admin": cred.Admin,
		"Table": table,
		"Query": q,
		"Error": errMsg,
	})
}

// apiAttendance is the JSON proxy used by page scripts. It propagates the
// three-way classification as distinct statuses and messages.
func (s *Server) apiAttendance(c *gin.Context) {
	cred, ok := session.Credential(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": MsgUnauthorized})
		return
	}

	records, err := s.Backend.ListRecords(c.Request.Context(), cred.Token)
	fetchOutcomes.WithLabelValues(outcomeOf(err)).Inc()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, records)
	case errors.Is(err, backend.ErrUnauthorized):
		s.Guard.End(c)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": MsgUnauthorized})
	case errors.Is(err, backend.ErrBackendUnreachable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": MsgUnreachable})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"detail": MsgLoadFailed})
	}
}

// report streams the attendance report as a download. format=csv (default)
// passes the backend's file through; format=xlsx builds a workbook locally
// from one fetched record set.
func (s *Server) report(c *gin.Context) {
	exp := exporterFor(c, s)

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		filename = "attendance_report.xlsx"
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		data, err = exp.XLSX(c.Request.Context())
	default:
		filename = s.Cfg.ExportFilename
		contentType = "text/csv"
		data, err = exp.CSV(c.Request.Context())
	}

	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, export.ErrNotLoggedIn) {
			s.forceLogout(c)
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard?notice="+url.QueryEscape(MsgExportFailed))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

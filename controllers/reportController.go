package controllers

import (
	"context"
	"net/http"
	"time"

	"lostfound-bot/models"
	"lostfound-bot/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

type ReportController struct {
	reports store.Reports
	stories store.Stories
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewReportController(reports store.Reports, stories store.Stories, now func() time.Time, log logrus.FieldLogger) *ReportController {
	return &ReportController{reports: reports, stories: stories, now: now, log: log}
}

type reportSummary struct {
	ID       string            `json:"id"`
	Type     models.ReportType `json:"type"`
	Item     string            `json:"item"`
	Location string            `json:"location"`
	HasImage bool              `json:"hasImage"`
}

// ListReports returns a summary of every stored report.
func (rc *ReportController) ListReports(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	reports, err := rc.reports.ListReports(ctx)
	if err != nil {
		rc.log.WithError(err).Error("failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	out := make([]reportSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportSummary{
			ID:       r.ID.Hex(),
			Type:     r.Type,
			Item:     r.Item,
			Location: r.Location,
			HasImage: r.ImageURL != "",
		})
	}
	c.JSON(http.StatusOK, out)
}

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the report analytics document.
type Stats struct {
	TotalReports   int            `json:"totalReports"`
	ByType         map[string]int `json:"byType"`
	Resolved       int            `json:"resolved"`
	Open           int            `json:"open"`
	Last7Days      []dayCount     `json:"last7Days"`
	SuccessStories int            `json:"successStories"`
}

// GetReportAnalytics summarizes reports by type, resolution and recency.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	reports, err := rc.reports.ListReports(ctx)
	if err != nil {
		rc.log.WithError(err).Error("failed to list reports for analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analytics"})
		return
	}
	stories, err := rc.stories.ListSuccessStories(ctx)
	if err != nil {
		rc.log.WithError(err).Error("failed to list success stories for analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analytics"})
		return
	}

	c.JSON(http.StatusOK, ComputeStats(reports, len(stories), rc.now()))
}

// ComputeStats builds the analytics for reports as of now. Days are UTC.
func ComputeStats(reports []models.Report, stories int, now time.Time) Stats {
	stats := Stats{
		TotalReports:   len(reports),
		ByType:         map[string]int{string(models.Lost): 0, string(models.Found): 0},
		SuccessStories: stories,
	}

	today := now.UTC().Truncate(24 * time.Hour)
	index := make(map[string]int, 7)
	for i := 6; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		index[date] = len(stats.Last7Days)
		stats.Last7Days = append(stats.Last7Days, dayCount{Date: date})
	}

	for i := range reports {
		r := &reports[i]
		stats.ByType[string(r.Type)]++
		if r.Resolved() {
			stats.Resolved++
		} else {
			stats.Open++
		}
		if day, ok := index[r.Timestamp.UTC().Format("2006-01-02")]; ok {
			stats.Last7Days[day].Count++
		}
	}
	return stats
}

// ListSuccessStories returns the public success stories, newest first.
func (rc *ReportController) ListSuccessStories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stories, err := rc.stories.ListSuccessStories(ctx)
	if err != nil {
		rc.log.WithError(err).Error("failed to list success stories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve success stories"})
		return
	}
	if stories == nil {
		stories = []models.SuccessStory{}
	}
	c.JSON(http.StatusOK, stories)
}

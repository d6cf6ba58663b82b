package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// User Activity Metrics
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"method", "status"}) // method: "password" or a provider name; status: "success" or "failed"

	// Bookmark Feature Metrics
	BookmarkCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_bookmark_created_total",
		Help: "Total number of bookmarks created.",
	})
	BookmarkDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_bookmark_deleted_total",
		Help: "Total number of bookmarks deleted.",
	})
	CategoryCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_category_created_total",
		Help: "Total number of categories created.",
	})
	TagCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_tag_created_total",
		Help: "Total number of tags created.",
	})
	TagReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_tag_reused_total",
		Help: "Total number of tag references resolved to an existing tag.",
	})
	ReminderSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_reminder_sent_total",
		Help: "Total number of reminder emails dispatched.",
	}, []string{"status"})
	SummaryGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_summary_generated_total",
		Help: "Total number of summaries generated.",
	})
)

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
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"

	// Feature Usage Metrics
	TagCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_tag_created_total",
		Help: "Total number of tags created.",
	})
	TagsAttachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_tags_attached_total",
		Help: "Total number of tags attached to users.",
	})
	TagsDetachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_tags_detached_total",
		Help: "Total number of tags detached from users.",
	})
	PopularTagScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_popular_tag_scans_total",
		Help: "Total number of popularity aggregation scans.",
	})
)

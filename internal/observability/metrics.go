package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpRequestsTotal         *prometheus.CounterVec
	httpLatencySeconds        *prometheus.HistogramVec
	httpErrorsTotal           *prometheus.CounterVec
	joinRequestsTotal         *prometheus.CounterVec
	submissionsTotal          *prometheus.CounterVec
	examAnswersDroppedTotal   prometheus.Counter
	examGradesTotal           prometheus.Counter
	uploadsTotal              *prometheus.CounterVec
	notificationsPublishedTot *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors of the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		joinRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_join_requests_total",
			Help: "Join request transitions by outcome.",
		}, []string{"outcome"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_assessment_submissions_total",
			Help: "Assessment submissions by kind and result.",
		}, []string{"kind", "result"})

		examAnswersDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classroom_exam_answers_dropped_total",
			Help: "Exam answers skipped during submission.",
		})

		examGradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classroom_exam_grades_total",
			Help: "Exam scores set by teachers.",
		})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_uploads_total",
			Help: "Course resource uploads by type and result.",
		}, []string{"type", "result"})

		notificationsPublishedTot = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_notifications_published_total",
			Help: "Notifications stored for users by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			joinRequestsTotal,
			submissionsTotal,
			examAnswersDroppedTotal,
			examGradesTotal,
			uploadsTotal,
			notificationsPublishedTot,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// JoinRequests counts join request transitions (requested, accepted, rejected).
func JoinRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return joinRequestsTotal
}

// Submissions counts quiz and exam submissions.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ExamAnswersDropped counts answers that could not be stored.
func ExamAnswersDropped() prometheus.Counter {
	RegisterMetrics()
	return examAnswersDroppedTotal
}

// ExamGrades counts exam scores set.
func ExamGrades() prometheus.Counter {
	RegisterMetrics()
	return examGradesTotal
}

// Uploads counts stored course files.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// NotificationsPublishedTotal counts stored notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTot
}

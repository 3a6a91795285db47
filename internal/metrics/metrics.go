package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exported on /metrics.
var (
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_attendance_marks_total",
		Help: "Attendance marks recorded, by status.",
	}, []string{"status"})

	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_cascade_deletes_total",
		Help: "Cascade deletes performed, by entity.",
	}, []string{"entity"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_cache_lookups_total",
		Help: "Read-cache lookups, by outcome (hit or miss).",
	}, []string{"outcome"})
)

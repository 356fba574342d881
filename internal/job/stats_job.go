package job

import (
	"SmartChat/internal/pkg/logger"
	"SmartChat/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// StatsJob 周期性输出在线与群组规模，供运维观察单进程水位
type StatsJob struct {
	presence service.PresenceService
	group    service.GroupService
}

func NewStatsJob(presence service.PresenceService, group service.GroupService) *StatsJob {
	return &StatsJob{presence: presence, group: group}
}

func (s *StatsJob) Run() {
	traceID := "job-stats-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	groups, pending := s.group.Stats()
	log.InfoContext(ctx, "StatsJob snapshot",
		"online_users", s.presence.OnlineCount(),
		"groups", groups,
		"pending_join_requests", pending,
	)
}

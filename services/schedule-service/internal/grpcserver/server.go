//go:build protogen

package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"

	schedulev1 "github.com/slotboard/slotboard/protos/gen/schedule/v1"
	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
	"github.com/slotboard/slotboard/services/schedule-service/internal/storage"
	"github.com/slotboard/slotboard/services/schedule-service/internal/validate"
)

type server struct {
	schedulev1.UnimplementedScheduleServiceServer
	repo  *storage.Repository
	clock schedule.Clock
}

func Register(grpcServer *grpc.Server, repo *storage.Repository, clock schedule.Clock) {
	schedulev1.RegisterScheduleServiceServer(grpcServer, &server{repo: repo, clock: clock})
}

func (s *server) CheckSlot(ctx context.Context, req *schedulev1.CheckSlotRequest) (*schedulev1.CheckSlotResponse, error) {
	if req.GetProviderId() == "" || req.GetStartUtc() == nil || req.GetEndUtc() == nil {
		return &schedulev1.CheckSlotResponse{Accepted: false, Reason: "provider_id, start_utc and end_utc are required"}, nil
	}

	start := req.GetStartUtc().AsTime().UTC()
	end := req.GetEndUtc().AsTime().UTC()
	if err := validate.ValidateSlot(start, end, s.clock.Now()); err != nil {
		return &schedulev1.CheckSlotResponse{Accepted: false, Reason: err.Error()}, nil
	}

	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	startHMS := start.Format("15:04:05")
	endHMS := end.Format("15:04:05")

	covered, err := s.repo.RuleCovers(ctx, req.GetProviderId(), date, startHMS, endHMS)
	if err != nil {
		return nil, err
	}
	override, hasOverride, err := s.repo.GetOverrideForDate(ctx, req.GetProviderId(), date)
	if err != nil {
		return nil, err
	}

	if covered || (hasOverride && override.IsAvailable) {
		return &schedulev1.CheckSlotResponse{Accepted: true}, nil
	}
	return &schedulev1.CheckSlotResponse{Accepted: false, Reason: "Provider is unavailable at this time."}, nil
}

func (s *server) GetDayWindow(ctx context.Context, req *schedulev1.DayWindowRequest) (*schedulev1.DayWindowResponse, error) {
	if req.GetProviderId() == "" || !validate.IsValidDate(req.GetDate()) {
		return &schedulev1.DayWindowResponse{Kind: "no_availability"}, nil
	}

	day, _ := time.Parse(validate.DateLayout, req.GetDate())
	snap, err := s.repo.Snapshot(ctx, req.GetProviderId(), day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	decision := schedule.NewResolver(snap).Resolve(req.GetDate())
	resp := &schedulev1.DayWindowResponse{}
	switch decision.Kind {
	case schedule.Blocked:
		resp.Kind = "blocked"
		resp.Reason = decision.Reason
	case schedule.OverrideBlocked:
		resp.Kind = "override_blocked"
	case schedule.Window:
		resp.Kind = "window"
		resp.WorkStartUtc = timestamppb.New(decision.WorkStart)
		resp.WorkEndUtc = timestamppb.New(decision.WorkEnd)
	default:
		resp.Kind = "no_availability"
	}
	return resp, nil
}

//go:build protogen

// Package schedule is the optional client for the schedule service's gRPC
// surface, used by the public slot-check endpoint when an address is
// configured.
package schedule

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/slotboard/slotboard/libs/grpcx"
	schedulev1 "github.com/slotboard/slotboard/protos/gen/schedule/v1"
)

type CheckResult struct {
	Accepted bool
	Reason   string
}

type Provider interface {
	CheckSlot(ctx context.Context, providerID string, start, end time.Time) (CheckResult, error)
}

type grpcProvider struct {
	client schedulev1.ScheduleServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: schedulev1.NewScheduleServiceClient(conn)}, nil
}

func (p *grpcProvider) CheckSlot(ctx context.Context, providerID string, start, end time.Time) (CheckResult, error) {
	resp, err := p.client.CheckSlot(ctx, &schedulev1.CheckSlotRequest{
		ProviderId: providerID,
		StartUtc:   timestamppb.New(start.UTC()),
		EndUtc:     timestamppb.New(end.UTC()),
	})
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Accepted: resp.GetAccepted(), Reason: resp.GetReason()}, nil
}

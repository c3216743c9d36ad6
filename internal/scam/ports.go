package scam

import "context"

// Repo — persistence of scam reports. Insert assigns ID and CreatedAt.
type Repo interface {
	Insert(ctx context.Context, r *Report) (int64, error)
	FindByMobile(ctx context.Context, normalizedMobile string) ([]Report, error)
}

// Service — one conversation turn end to end.
type Service interface {
	HandleTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error)
}

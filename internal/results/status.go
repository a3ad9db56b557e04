package results

import (
	"context"
	"fmt"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/belbin"
	"github.com/talentroute/assessment-engine/internal/general"
	"github.com/talentroute/assessment-engine/internal/neo"
)

// ServiceStatus adapts the three track services into a StatusSource.
type ServiceStatus struct {
	Belbin  *belbin.Service
	Neo     *neo.Service
	General *general.Service
}

func (s ServiceStatus) TrackStatus(ctx context.Context, userID string, track assess.Track, examID string) (assess.Status, error) {
	switch track {
	case assess.TrackBelbin:
		sub, err := s.Belbin.Answers(ctx, userID)
		if err != nil {
			return "", err
		}
		return sub.Status, nil
	case assess.TrackNeo:
		sub, err := s.Neo.Answers(ctx, userID)
		if err != nil {
			return "", err
		}
		return sub.Status, nil
	case assess.TrackGeneral:
		info, err := s.General.Status(ctx, userID, examID)
		if err != nil {
			return "", err
		}
		if info.Status == "" {
			return assess.StatusStarted, nil
		}
		return info.Status, nil
	}
	return "", fmt.Errorf("track %q: %w", track, assess.ErrNotFound)
}

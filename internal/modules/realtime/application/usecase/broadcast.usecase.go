package usecase

import (
	"context"
	"time"

	"mesaYaWaitlist/internal/modules/realtime/application/port"
	"mesaYaWaitlist/internal/modules/realtime/domain"
)

type BroadcastUseCase struct {
	broadcaster port.Broadcaster
	now         func() time.Time
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b, now: time.Now}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, msg *domain.Message) {
	if msg == nil {
		return
	}
	uc.broadcaster.Broadcast(ctx, msg)
}

// PushFragment sends one rendered region to every view of the session.
func (uc *BroadcastUseCase) PushFragment(ctx context.Context, sessionID string, fragment domain.Fragment, extras domain.Metadata) {
	uc.Execute(ctx, domain.BuildFragmentMessage(sessionID, fragment, uc.now(), extras))
}

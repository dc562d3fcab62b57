package transport

import (
	"context"
	"log/slog"
	"strconv"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	"mesaYaWaitlist/internal/modules/realtime/application/usecase"
	"mesaYaWaitlist/internal/modules/realtime/domain"
	tables "mesaYaWaitlist/internal/modules/tables/domain"
)

// FragmentNotifier re-renders the regions a session changed and pushes them
// to the session's open views.
type FragmentNotifier struct {
	renderer  *Renderer
	broadcast *usecase.BroadcastUseCase
}

func NewFragmentNotifier(renderer *Renderer, broadcast *usecase.BroadcastUseCase) *FragmentNotifier {
	return &FragmentNotifier{renderer: renderer, broadcast: broadcast}
}

func (n *FragmentNotifier) StateChanged(sessionID string, state dashboard.State, regions dashboard.Region) {
	extras := summaryMetadata(state)
	for _, fragment := range renderFragments(n.renderer, state, regions) {
		n.broadcast.PushFragment(context.Background(), sessionID, fragment, extras)
	}
}

func renderFragments(renderer *Renderer, state dashboard.State, regions dashboard.Region) []domain.Fragment {
	names := regions.Names()
	fragments := make([]domain.Fragment, 0, len(names))
	for _, name := range names {
		html, err := renderer.RenderRegion(name, state)
		if err != nil {
			slog.Error("fragment render failed", slog.String("region", name), slog.Any("error", err))
			continue
		}
		fragments = append(fragments, domain.Fragment{Region: name, HTML: html})
	}
	return fragments
}

// summaryMetadata lets views and logs see list sizes without parsing markup.
func summaryMetadata(state dashboard.State) domain.Metadata {
	occupied := tables.CountOccupied(state.Tables)
	return domain.Metadata{
		"waitlistCount":   strconv.Itoa(len(state.Waitlist)),
		"tablesCount":     strconv.Itoa(len(state.Tables)),
		"tablesOccupied":  strconv.Itoa(occupied),
		"tablesAvailable": strconv.Itoa(len(state.Tables) - occupied),
	}
}

var _ port.ViewNotifier = (*FragmentNotifier)(nil)

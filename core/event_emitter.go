package orchestration

import "github.com/aria-voice/aria-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.QueryReceived:
			if opts.onQueryReceived != nil {
				opts.onQueryReceived(typedEvent.QueryID, typedEvent.Text)
			}
		case events.RoutingDecided:
			if opts.onRoutingDecided != nil {
				opts.onRoutingDecided(typedEvent.QueryID, RouteKind(typedEvent.Route), typedEvent.Tool)
			}
		case events.ResearchProgress:
			if opts.onResearchProgress != nil {
				opts.onResearchProgress(typedEvent.QueryID, typedEvent.Phase)
			}
		case events.UtteranceStarted:
			if opts.onUtteranceStarted != nil {
				opts.onUtteranceStarted(typedEvent.QueryID, typedEvent.Priority, typedEvent.Text)
			}
		case events.UtterancePlayed:
			if opts.onUtterancePlayed != nil {
				opts.onUtterancePlayed(typedEvent.QueryID, typedEvent.Text)
			}
		case events.UtteranceDropped:
			if opts.onUtteranceDropped != nil {
				opts.onUtteranceDropped(typedEvent.QueryID, string(typedEvent.Cause))
			}
		case events.QueryClosed:
			if opts.onQueryClosed != nil {
				opts.onQueryClosed(typedEvent.QueryID, string(typedEvent.Reason))
			}
		}
	}
}

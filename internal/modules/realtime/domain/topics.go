package domain

import "strings"

const (
	SystemEntity    = "system"
	DashboardEntity = "dashboard"

	TopicSystemConnected = SystemEntity + ".connected"
	TopicSystemPong      = SystemEntity + ".pong"
	TopicSystemError     = SystemEntity + ".error"

	ActionConnected = "connected"
	ActionPong      = "pong"
	ActionError     = "error"
	ActionFragment  = "fragment"

	TopicDashboardFragment = DashboardEntity + "." + ActionFragment
	TopicDashboardError    = DashboardEntity + "." + ActionError
)

// Routing keys understood by the hub.
const (
	MetaUserID    = "userId"
	MetaSessionID = "sessionId"
	MetaViewID    = "viewId"
)

// ErrorTopic returns the canonical error topic for the given entity.
func ErrorTopic(entity string) string {
	return CustomTopic(entity, ActionError)
}

// CustomTopic returns the canonical topic for the given entity and action.
func CustomTopic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.TrimSpace(action)
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}

// SplitTopic infers entity and action from a dotted topic such as
// "mesaya.waitlist.updated". A topic without dots is all entity.
func SplitTopic(topic string) (string, string) {
	parts := strings.Split(strings.TrimSpace(topic), ".")
	if len(parts) >= 2 {
		entity := strings.TrimSpace(parts[len(parts)-2])
		action := strings.TrimSpace(parts[len(parts)-1])
		if entity != "" && action != "" {
			return entity, action
		}
	}
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		topic = topic[idx+1:]
	}
	return strings.TrimSpace(topic), ""
}

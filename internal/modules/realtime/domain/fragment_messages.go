package domain

import (
	"strings"
	"time"
)

// Fragment is a rendered piece of a view that replaces the element with the
// same region name in the browser.
type Fragment struct {
	Region string `json:"region"`
	HTML   string `json:"html"`
}

// BuildFragmentMessage composes the message that pushes one rendered region to
// the views of a session.
func BuildFragmentMessage(sessionID string, fragment Fragment, at time.Time, extras Metadata) *Message {
	region := strings.TrimSpace(fragment.Region)
	if region == "" {
		return nil
	}
	trimmedSession := strings.TrimSpace(sessionID)
	metadata := map[string]string{
		"region": region,
	}
	if trimmedSession != "" {
		metadata[MetaSessionID] = trimmedSession
	}
	metadata = mergeInto(metadata, extras)

	return &Message{
		Topic:      TopicDashboardFragment,
		Entity:     DashboardEntity,
		Action:     ActionFragment,
		ResourceID: region,
		Metadata:   metadata,
		Data:       Fragment{Region: region, HTML: fragment.HTML},
		Timestamp:  at.UTC(),
	}
}

// BuildErrorMessage composes an error reply to a rejected view command.
func BuildErrorMessage(entity, action, reason string, at time.Time) *Message {
	entityName := strings.TrimSpace(entity)
	if entityName == "" {
		entityName = SystemEntity
	}
	metadata := map[string]string{
		"action": strings.TrimSpace(action),
	}
	if strings.TrimSpace(reason) != "" {
		metadata["reason"] = reason
	}
	return &Message{
		Topic:    ErrorTopic(entityName),
		Entity:   entityName,
		Action:   ActionError,
		Metadata: metadata,
		Data: map[string]string{
			"error": reason,
		},
		Timestamp: at.UTC(),
	}
}

package domain

import "fmt"

// Topic names a UI region that can be asked to refresh.
type Topic string

const (
	TopicSessionsList  Topic = "sessions-list"
	TopicSessionDetail Topic = "session-detail"
	TopicWholeBody     Topic = "whole-body"
)

// ParseTopic validates a topic name.
func ParseTopic(s string) (Topic, error) {
	switch t := Topic(s); t {
	case TopicSessionsList, TopicSessionDetail, TopicWholeBody:
		return t, nil
	default:
		return "", fmt.Errorf("unknown topic %q", s)
	}
}

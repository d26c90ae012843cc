package redis

import "fmt"

const ns = "tixbff:v1"

func KeyCatalog() string {
	return ns + ":catalog:events"
}

func KeyCategories() string {
	return ns + ":catalog:categories"
}

func KeyCities() string {
	return ns + ":catalog:cities"
}

func KeyEvent(eventID string) string {
	return fmt.Sprintf("%s:event:%s", ns, eventID)
}

func KeySession(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", ns, sessionID)
}

// KeySubmitLock guards the in-flight booking submission of one session.
func KeySubmitLock(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:submitting", ns, sessionID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}

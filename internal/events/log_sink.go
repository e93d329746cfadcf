package events

import (
	"context"
	"encoding/json"
	"log"
)

// LogNotifier writes every notification to the standard logger as JSON.
var LogNotifier Notifier = NotifierFunc(func(_ context.Context, n Notification) {
	logNotification(n)
})

func logNotification(n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("events: failed to marshal notification: %v", err)
		return
	}

	switch n.Type {
	case EventError:
		log.Printf("ERROR %s", data)
	case EventWarn:
		log.Printf("WARN %s", data)
	default:
		log.Printf("INFO %s", data)
	}
}

package notifsvc

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rspmedika/mutabaah/core"
)

var (
	SentNotifications = make([]core.Notification, 0)
	mu                sync.Mutex
)

type consoleService struct {
	titlePrefix   string
	disableOutput bool
}

var _ core.NotificationService = (*consoleService)(nil)

func NewConsoleService() core.NotificationService {
	return &consoleService{
		titlePrefix: "[" + core.Conf.AppName + "] ",
	}
}

func (svc consoleService) Send(notifs ...*core.Notification) {
	for _, notif := range notifs {
		go svc.send(notif)
	}
}

func (svc consoleService) send(notif *core.Notification) {
	if !notif.HasRecipient() || !notif.HasContent() {
		return
	}

	if !svc.disableOutput {
		body := new(strings.Builder)
		_, _ = fmt.Fprintf(body, "To: %s\r\n", notif.UserID)
		_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
		_, _ = fmt.Fprintf(body, "Type: %s\r\n", notif.Type)
		_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.titlePrefix+notif.Title)
		if notif.RelatedEntityID != "" {
			_, _ = fmt.Fprintf(body, "Entity: %s\r\n", notif.RelatedEntityID)
		}
		_, _ = fmt.Fprintf(body, "\r\n%s\r\n", notif.Message)
		log.Println(body.String())
	}

	mu.Lock()
	SentNotifications = append(SentNotifications, *notif)
	mu.Unlock()
}

// ClearSent resets the capture buffer; for tests.
func ClearSent() {
	mu.Lock()
	SentNotifications = SentNotifications[:0]
	mu.Unlock()
}

// Sent returns a copy of the captured notifications; for tests.
func Sent() []core.Notification {
	mu.Lock()
	defer mu.Unlock()
	out := make([]core.Notification, len(SentNotifications))
	copy(out, SentNotifications)
	return out
}

type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock() core.NotificationService {
	return &consoleServiceMock{
		consoleService: consoleService{
			titlePrefix:   "[" + core.Conf.AppName + "] ",
			disableOutput: true,
		},
	}
}

func (svc *consoleServiceMock) Send(notifs ...*core.Notification) {
	for _, notif := range notifs {
		// run synchronously
		svc.send(notif)
	}
}

// Package notify sends fire-and-forget HTTP notifications when watched runs
// finish. The primary use case is ntfy.sh, but any HTTP webhook works.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/run"
)

// Notifier posts plain-text HTTP notifications for finished runs.
type Notifier struct {
	url      string
	title    string
	onFinish bool
	client   *http.Client
	wg       sync.WaitGroup
}

// New creates a Notifier. projectName is used as the X-Title header; if
// empty, "usain" is used instead. An empty notifURL disables posting.
func New(notifURL, projectName string, onFinish bool) *Notifier {
	title := "usain"
	if projectName != "" {
		title = projectName
	}
	return &Notifier{
		url:      notifURL,
		title:    title,
		onFinish: onFinish,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Hook is an indicator.Observer. It fires an asynchronous POST when a run
// reaches FINISHED and on_finish is enabled.
func (n *Notifier) Hook(r run.Run, s indicator.DisplayState) {
	if n.url == "" || !n.onFinish || !s.Finished() {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.post(Message(r, s), tags(s.Result))
	}()
}

// Wait blocks until every notification started by Hook has been sent or
// has failed.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Message is the notification body for a finished run.
func Message(r run.Run, s indicator.DisplayState) string {
	if s.Result == "" {
		return fmt.Sprintf("%s finished", r)
	}
	return fmt.Sprintf("%s finished: %s", r, s.Result)
}

// tags maps a run result onto ntfy.sh emoji tags.
func tags(result string) string {
	switch result {
	case "SUCCESS":
		return "white_check_mark"
	case "FAILURE":
		return "x"
	case "UNSTABLE":
		return "warning"
	case "ABORTED":
		return "no_entry_sign"
	}
	return ""
}

// post sends a plain-text POST to the configured URL. Errors are silently
// discarded so notification failures never interrupt watching.
func (n *Notifier) post(message, tags string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.title)
	if tags != "" {
		req.Header.Set("X-Tags", tags)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

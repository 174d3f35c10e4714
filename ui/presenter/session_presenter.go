package presenter

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/pixel-cam-go/domain/capture"
	"github.com/soocke/pixel-cam-go/ui/model"
)

// StatusView displays the one-line connection summary.
type StatusView interface {
	SetStatus(text string)
}

// SessionPresenter formats stream durations and worker stats for the status line.
type SessionPresenter struct {
	sess *model.SessionModel
	conn *model.ConnectionModel
	view StatusView
	last string
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, conn *model.ConnectionModel, view StatusView) *SessionPresenter {
	return &SessionPresenter{sess: sess, conn: conn, view: view}
}

// Tick advances the session model and pushes the status text when it changed.
// stats may be nil when no connection exists.
func (p *SessionPresenter) Tick(now time.Time, stats func() capture.Stats) {
	if p == nil || p.sess == nil || p.conn == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.conn.Streaming, p.conn.FrameCount(), now)
	text := p.status(stats)
	if text == p.last {
		return
	}
	p.last = text
	p.view.SetStatus(text)
}

func (p *SessionPresenter) status(stats func() capture.Stats) string {
	session, total := p.sess.Values()
	switch {
	case !p.conn.Connected && p.conn.URI != "":
		return "connecting to " + p.conn.URI
	case !p.conn.Connected:
		return fmt.Sprintf("disconnected | total %s", formatDuration(total))
	case !p.conn.Streaming:
		return fmt.Sprintf("idle %s | total %s", p.conn.Current, formatDuration(total))
	}
	text := fmt.Sprintf("streaming %s %s | %.1f fps", p.conn.Current, formatDuration(session), p.sess.FPS())
	if stats != nil {
		st := stats()
		text += fmt.Sprintf(" | %s | frames %s", st.Throughput(), humanize.Comma(int64(st.Frames)))
		if st.FrameErrors > 0 {
			text += fmt.Sprintf(" | errors %d", st.FrameErrors)
		}
	}
	return text
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

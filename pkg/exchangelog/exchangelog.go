// Package exchangelog records raw request/response pairs exchanged with
// the completion backend. Admin-driven turns append to per-session files
// so tenant admins can audit what the model was sent.
package exchangelog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ChatTypeTest  = "testchat"
	ChatTypeProd  = "prodchat"
	ChatTypeAdmin = "adminchat"
)

const separatorLine = "############################################################"

// Exchange is one request/response pair.
type Exchange struct {
	ChatType   string
	TenantID   uuid.UUID
	SessionID  string
	Request    string
	Response   string
	NewSession bool
}

// Sink receives exchanges. Implementations must tolerate being called from
// concurrent chat turns.
type Sink interface {
	Append(ex Exchange)
}

// Discard is the default sink.
type Discard struct{}

func (Discard) Append(Exchange) {}

// FileSink appends exchanges to {dir}/{chatType}/{tenantID}_{sessionID}.log.
// Write failures are logged and dropped; audit logging must never fail a
// chat turn.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Append(ex Exchange) {
	chatType := ex.ChatType
	switch chatType {
	case ChatTypeTest, ChatTypeProd, ChatTypeAdmin:
	default:
		chatType = ChatTypeProd
	}

	dir := filepath.Join(s.dir, chatType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("Failed to create exchange log dir", "dir", dir, "error", err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", ex.TenantID, sanitizeSessionID(ex.SessionID)))

	var b strings.Builder
	if ex.NewSession {
		ts := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
		fmt.Fprintf(&b, "tenant_id=%s session_id=%s started=%s\n%s\n", ex.TenantID, ex.SessionID, ts, separatorLine)
	} else {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "=== REQUEST ===\n%s\n%s\n=== RESPONSE ===\n%s\n", ex.Request, separatorLine, ex.Response)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("Failed to open exchange log", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		slog.Warn("Failed to write exchange log", "path", path, "error", err)
	}
}

func sanitizeSessionID(sessionID string) string {
	var b strings.Builder
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package notifier posts desktop notifications through the markease tray
// companion. Delivery is best effort.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

const trayExecutable = "markease-tray"

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess

	ErrTrayNotRunning = errors.New("markease-tray is not running")
)

type Notifier struct {
	client     *http.Client
	retryDelay time.Duration
}

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{
		client:     &http.Client{Timeout: 5 * time.Second},
		retryDelay: constants.NotifyRetryDelay,
	}
}

// Notify shows text through the tray application.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	t, err := locateTray()
	if err != nil {
		return err
	}

	payload := WebhookPayload{Text: text, DurationMs: constants.NotificationDurationMs}

	var lastErr error
	for attempt := 1; attempt <= constants.NotifyMaxRetries; attempt++ {
		if lastErr = n.send(ctx, t, payload); lastErr == nil {
			return nil
		}
		logger.Debug("Notification attempt failed", "attempt", attempt, "error", lastErr)
		if attempt == constants.NotifyMaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelay):
		}
	}
	return fmt.Errorf("failed to deliver notification: %w", lastErr)
}

// SessionLogged announces a stopped focus session.
func (n *Notifier) SessionLogged(ctx context.Context, rec models.HabitRecord, minutes int) error {
	text := fmt.Sprintf("Focus session logged: %d min (today %d min)", minutes, rec.DurationMinutes)
	return n.Notify(ctx, text)
}

// LockDir returns the directory holding the tray lockfile, honoring the
// tray's settings.lockfile_dir override.
func LockDir() (string, error) {
	base, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	dir := filepath.Join(base, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	if err != nil {
		return dir, nil
	}
	var doc struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("Ignoring malformed tray settings", "error", err)
		return dir, nil
	}
	if doc.Settings.LockfileDir != "" {
		return doc.Settings.LockfileDir, nil
	}
	return dir, nil
}

// tray is a running tray instance as advertised by its lockfile.
type tray struct {
	port   int
	pid    int
	secret string
}

func (t tray) url() string {
	return "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(t.port))
}

// parseLock reads a "port|pid|secret" lockfile body.
func parseLock(data []byte) (tray, error) {
	fields := strings.Split(strings.TrimSpace(string(data)), "|")
	if len(fields) != 3 {
		return tray{}, errors.New("lockfile is malformed")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var t tray
	var err error
	if fields[0] == "" {
		return tray{}, errors.New("lockfile port is empty")
	}
	if t.port, err = strconv.Atoi(fields[0]); err != nil {
		return tray{}, fmt.Errorf("lockfile port %q is not a number", fields[0])
	}
	if t.port < 1 || t.port > 65535 {
		return tray{}, fmt.Errorf("lockfile port %d is out of range", t.port)
	}
	if t.pid, err = strconv.Atoi(fields[1]); err != nil {
		return tray{}, fmt.Errorf("lockfile process ID %q is not a number", fields[1])
	}
	if t.secret = fields[2]; t.secret == "" {
		return tray{}, errors.New("lockfile secret is empty")
	}
	return t, nil
}

// checkProcess confirms the lockfile's pid belongs to a live tray.
func (t tray) checkProcess() error {
	p, err := findProcessFunc(t.pid)
	if err != nil || p == nil {
		return ErrTrayNotRunning
	}
	if !strings.HasPrefix(p.Executable(), trayExecutable) {
		return fmt.Errorf("pid %d belongs to %s, not %s", t.pid, p.Executable(), trayExecutable)
	}
	return nil
}

func readTray(lockPath string) (tray, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return tray{}, ErrTrayNotRunning
	}
	t, err := parseLock(data)
	if err != nil {
		return tray{}, err
	}
	return t, t.checkProcess()
}

func locateTray() (tray, error) {
	dir, err := LockDir()
	if err != nil {
		return tray{}, err
	}
	return readTray(filepath.Join(dir, constants.NotifierLockfileName))
}

func (n *Notifier) send(ctx context.Context, t tray, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Markease-Secret", t.secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("tray answered %s: %s", res.Status, strings.TrimSpace(string(msg)))
}

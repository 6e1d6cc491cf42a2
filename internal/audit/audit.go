package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/PolarWolf314/pagelock/internal/configs"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// Operation names recorded in the log.
const (
	OpInit    = "init"
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpShare   = "share"
	OpClean   = "clean"
)

// Entry represents a single audit log entry. Passwords, keys and share
// links are never recorded.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // OS user running the command.
	Host      string `json:"host,omitempty"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	Files        []string `json:"files,omitempty"`         // For encrypt/decrypt.
	FailedCount  int      `json:"failed_count,omitempty"`  // For encrypt/decrypt.
	Mode         string   `json:"mode,omitempty"`          // For encrypt.
	OutputDir    string   `json:"output_dir,omitempty"`    // For encrypt/decrypt/clean.
	PageURL      string   `json:"page_url,omitempty"`      // For share, without the fragment.
	ProjectName  string   `json:"project_name,omitempty"`  // For init.
	ProjectUUID  string   `json:"project_uuid,omitempty"`  // For init.
	RemovedCount int      `json:"removed_count,omitempty"` // For clean.
}

// Log appends an entry to the audit log of the current project.
// Outside a project, or if writing fails, nothing happens: a command never
// fails because of the audit log.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}

	// #nosec G306 -- audit log should be readable by team members.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser returns an entry for op with the user and host filled in.
func LogWithUser(op string) Entry {
	entry := Entry{Operation: op}

	if configs.UserPagelockSettings != nil {
		entry.User = configs.UserPagelockSettings.Username
	}
	if host, err := utils.GetHostname(); err == nil {
		entry.Host = host
	}

	return entry
}

// LogPath returns the path to the audit log file.
// Returns empty string if project is not initialized.
func LogPath() string {
	if configs.ProjectPagelockSettings == nil {
		return ""
	}
	return configs.ProjectPagelockSettings.AuditLogPath
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are skipped, they are usually partial writes.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

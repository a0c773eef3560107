package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

// ErrBackupDisabled is returned when no backup endpoint is configured.
var ErrBackupDisabled = errors.New("backup endpoint not configured")

// backupResponse is the reply of the backup function. Size is usually a
// human readable string ("2.30 MB") but older deployments sent bytes.
type backupResponse struct {
	EndDate string `json:"endDate"`
	Size    any    `json:"size"`
	CloudID string `json:"cloudId"`
}

// Backup asks the backup function to export the database and registers the
// resulting archive under the next registry number.
func (r *Runner) Backup(ctx context.Context) (rec *models.BackupRecord, err error) {
	defer func() { r.finish(JobBackup, err) }()
	if r.endpoint == "" {
		return nil, ErrBackupDisabled
	}

	start := r.now()
	target, err := backupURL(r.endpoint, entity.FormatTimestamp(start))
	if err != nil {
		return nil, err
	}
	res, err := r.trigger(ctx, target)
	if err != nil {
		return nil, r.failure(ctx, "Automatic Backup", err, map[string]any{"url": target})
	}
	end, perr := entity.ParseTimestamp(res.EndDate)
	if perr != nil {
		end = r.now()
	}
	var size string
	if res.Size != nil {
		size = fmt.Sprint(res.Size)
	}
	rec, err = r.repos.Backups.Record(ctx, start, end, size, res.CloudID)
	if err != nil {
		return nil, r.failure(ctx, "Backup DB Insert", err, map[string]any{"cloudId": res.CloudID})
	}
	return rec, nil
}

// backupURL appends now, with colons replaced by dashes, as the query
// parameter the backup function names its archive after.
func backupURL(endpoint, now string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("backup endpoint: %w", err)
	}
	q := u.Query()
	q.Set("now", strings.ReplaceAll(now, ":", "-"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Runner) trigger(ctx context.Context, target string) (backupResponse, error) {
	var out backupResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return out, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("backup endpoint returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode backup response: %w", err)
	}
	if out.CloudID == "" {
		return out, errors.New("backup response without cloudId")
	}
	return out, nil
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudgroundcontrol/livekit-roster/pkg/participant"
	"github.com/cloudgroundcontrol/livekit-roster/pkg/upload"
	"github.com/labstack/gommon/log"
	"github.com/lithammer/shortuuid/v4"
)

// ReportsDir is where attendance reports are written before upload.
const ReportsDir = "reports"

type Report struct {
	Room         string                        `json:"room"`
	GeneratedAt  time.Time                     `json:"generatedAt"`
	Participants []participant.ParticipantData `json:"participants"`
}

type Publisher interface {
	Publish(ctx context.Context, report Report) (string, error)
}

type reportPublisher struct {
	dir      string
	uploader upload.Uploader
	webhooks []string
	client   *http.Client
}

// NewPublisher writes reports under dir. A nil uploader keeps the reports on
// disk; otherwise they are uploaded in the background and removed locally.
func NewPublisher(dir string, uploader upload.Uploader, webhooks []string) Publisher {
	return &reportPublisher{
		dir:      dir,
		uploader: uploader,
		webhooks: webhooks,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Publish returns where the report ended up: the local file name, or the
// uploader's key when one is configured.
func (p *reportPublisher) Publish(ctx context.Context, report Report) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s-%s.json", reportName(report.Room), shortuuid.New())
	filename := filepath.Join(p.dir, key)
	if err = os.WriteFile(filename, body, 0644); err != nil {
		return "", err
	}
	log.Debugf("wrote report | room: %s, file: %s, participants: %d", report.Room, filename, len(report.Participants))

	output := filename
	if p.uploader != nil {
		output = key
		if dir := p.uploader.GetDirectory(); dir != "" {
			output = fmt.Sprintf("%s/%s", dir, key)
		}
		go func() {
			if err := p.upload(context.Background(), key, filename); err != nil {
				log.Errorf("cannot upload report | error: %v, output: %s, room: %s", err, output, report.Room)
				return
			}
			log.Infof("uploaded report | output: %s, room: %s", output, report.Room)
		}()
	}

	for _, hook := range p.webhooks {
		go p.notify(hook, body)
	}
	return output, nil
}

// reportName turns a room name into a single path element, so a report
// always lands directly under the reports directory.
func reportName(room string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, room)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "room"
	}
	return name
}

func (p *reportPublisher) upload(ctx context.Context, key string, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}

	err = p.uploader.Upload(ctx, key, file)
	file.Close()
	if err != nil {
		return err
	}

	// If there are no errors after uploading, delete the file
	return os.Remove(filename)
}

func (p *reportPublisher) notify(url string, body []byte) {
	resp, err := p.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Errorf("error reaching webhook | error: %v, url: %s", err, url)
		return
	}
	resp.Body.Close()
	log.Infof("sent report to webhook | url: %s, status: %d", url, resp.StatusCode)
}

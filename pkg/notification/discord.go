package notification

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/arrmap/pkg/classify"
	"github.com/autobrr/arrmap/pkg/config"
	"github.com/autobrr/arrmap/pkg/inventory"
	"github.com/autobrr/arrmap/pkg/relationship"
)

const (
	maxEmbedsPerMessage = 10
	maxCharactersPerMsg = 6000

	// hardcoded limit of fields to avoid hammering the api
	maxTotalFields = 250

	maxListedPaths = 5
)

type DiscordMessage struct {
	Content interface{}    `json:"content"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColors int

const (
	LIGHT_BLUE EmbedColors = 0x58b9ff
	RED        EmbedColors = 0xed4245
	GREEN      EmbedColors = 0x57f287
	GRAY       EmbedColors = 0x99aab5
)

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient *http.Client
}

func (d *discordSender) Name() string {
	return "discord"
}

func NewDiscordSender(log *logrus.Entry, config config.NotificationsConfig) Sender {
	return &discordSender{
		log:    log.WithField("sender", "discord"),
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: sharedhttp.Transport,
		},
	}
}

func (d *discordSender) calculateEmbedSize(embed DiscordEmbed) (int, error) {
	jsonData, err := json.Marshal(embed)
	if err != nil {
		return 0, err
	}
	return len(jsonData), nil
}

func (d *discordSender) Send(ctx context.Context, title string, description string, runTime time.Duration, fields []Field) error {
	var (
		allEmbeds   []DiscordEmbed
		totalFields = len(fields)
		timestamp   = time.Now()
		color       = LIGHT_BLUE

		batches      [][]DiscordEmbed
		currentBatch []DiscordEmbed
		currentChars int
	)

	// nothing worth reporting
	if totalFields == 0 && d.config.SkipEmptyRun {
		return nil
	}

	if strings.Contains(title, "degraded") {
		color = RED
	} else if totalFields == 0 {
		color = GREEN
	}

	rt := runTime.Truncate(time.Millisecond).String()

	// only send a summary embed if no fields are present, there are more fields than allowed,
	// or the config setting "detailed" is set to false
	if totalFields == 0 || totalFields > maxTotalFields || !d.config.Detailed {
		allEmbeds = append(allEmbeds, DiscordEmbed{
			Title:       title,
			Description: description,
			Color:       int(color),
			Footer: DiscordEmbedsFooter{
				Text: d.buildFooter(0, totalFields, rt),
			},
			Timestamp: timestamp,
		})
	} else {
		for i, field := range fields {
			embed := DiscordEmbed{
				Title:  title,
				Color:  int(color),
				Fields: d.parseFieldValueToInlineFields(field.Value),
				Footer: DiscordEmbedsFooter{
					Text: d.buildFooter(i+1, totalFields, rt),
				},
				Timestamp: timestamp,
			}

			if field.Name != "" {
				embed.Description = fmt.Sprintf("**%s**", field.Name)
			}

			allEmbeds = append(allEmbeds, embed)
		}
		allEmbeds = append(allEmbeds, DiscordEmbed{
			Title:       fmt.Sprintf("%s - Summary", title),
			Description: description,
			Color:       int(color),
			Footer: DiscordEmbedsFooter{
				Text: d.buildFooter(0, 0, rt),
			},
			Timestamp: timestamp,
		})
	}

	// Batch embeds for messages (max 10 embeds per message)
	flush := func() {
		if len(currentBatch) == 0 {
			return
		}
		batches = append(batches, currentBatch)
		currentBatch = nil
		currentChars = 0
	}

	for _, e := range allEmbeds {
		eSize, err := d.calculateEmbedSize(e)
		if err != nil {
			return errors.Wrap(err, "failed to calculate embed size for batching")
		}

		if len(currentBatch) >= maxEmbedsPerMessage || currentChars+eSize > maxCharactersPerMsg {
			flush()
		}

		currentBatch = append(currentBatch, e)
		currentChars += eSize
	}
	flush()

	totalMsgs := len(batches)

	for i, batch := range batches {
		jsonData, err := json.Marshal(DiscordMessage{Content: nil, Embeds: batch})
		if err != nil {
			return errors.Wrap(err, "could not marshal json request for a message chunk")
		}
		if err := d.sendRequest(ctx, jsonData); err != nil {
			return errors.Wrap(err, "failed to send a message chunk to Discord")
		}

		d.log.Debugf("Sent Discord message %d/%d (%d embeds, %d chars).",
			i+1, totalMsgs, len(batch), len(jsonData))
	}

	d.log.Debugf("All %d Discord messages sent successfully.", totalMsgs)
	return nil
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord != ""
}

func (d *discordSender) sendRequest(ctx context.Context, jsonData []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.Service.Discord, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	d.log.Tracef("Discord response status: %d", res.StatusCode)

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, readErr := io.ReadAll(bufio.NewReader(res.Body))
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}

		return errors.Errorf("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}

// BuildField constructs a Field based on the provided action and build options.
func (d *discordSender) BuildField(action Action, opt BuildOptions) Field {
	switch action {
	case ActionOrphan:
		return d.buildOrphanField(opt.Orphan)
	case ActionCrossSeed:
		return d.buildCrossSeedField(opt.Cluster)
	case ActionService:
		return d.buildServiceField(opt.Service)
	case ActionMissing:
		return d.buildMissingField(opt.Missing)
	}

	return Field{}
}

func (d *discordSender) parseFieldValueToInlineFields(value string) []DiscordEmbedsField {
	var fields []DiscordEmbedsField

	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		d.log.WithError(err).Error("Failed to parse field value as JSON")
		return []DiscordEmbedsField{}
	}

	return fields
}

func toField(name string, inlineFields []DiscordEmbedsField) Field {
	jsonData, _ := json.Marshal(inlineFields)
	return Field{Name: name, Value: string(jsonData)}
}

func listPaths(paths []string) string {
	if len(paths) <= maxListedPaths {
		return strings.Join(paths, "\n")
	}
	return fmt.Sprintf("%s\n... and %d more", strings.Join(paths[:maxListedPaths], "\n"), len(paths)-maxListedPaths)
}

func (d *discordSender) buildOrphanField(o classify.Orphan) Field {
	paths := make([]string, 0, len(o.Paths))
	for _, p := range o.Paths {
		paths = append(paths, p.Path)
	}

	inlineFields := []DiscordEmbedsField{
		{Name: "Size", Value: humanize.IBytes(uint64(o.Size)), Inline: true},
		{Name: "Reclaimable", Value: humanize.IBytes(uint64(o.ReclaimableBytes)), Inline: true},
		{Name: "Links", Value: fmt.Sprintf("%d/%d", o.LinkCount, o.Nlink), Inline: true},
		{Name: "Paths", Value: listPaths(paths), Inline: false},
	}

	// path is already in the Paths field
	return toField("", inlineFields)
}

func (d *discordSender) buildCrossSeedField(c classify.CrossSeedCluster) Field {
	inlineFields := []DiscordEmbedsField{
		{Name: "Torrents", Value: fmt.Sprintf("%d", len(c.Torrents)), Inline: true},
		{Name: "Shared", Value: humanize.IBytes(uint64(c.SharedSize)), Inline: true},
	}

	if len(c.Trackers) > 0 {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   "Trackers",
			Value:  strings.Join(c.Trackers, ", "),
			Inline: true,
		})
	}

	inlineFields = append(inlineFields, DiscordEmbedsField{
		Name:   "Names",
		Value:  listPaths(c.Names),
		Inline: false,
	})

	name := ""
	if len(c.Names) > 0 {
		name = c.Names[0]
	}
	return toField(fmt.Sprintf("Cross-seed: %s", name), inlineFields)
}

func (d *discordSender) buildServiceField(h inventory.Health) Field {
	inlineFields := []DiscordEmbedsField{
		{Name: "Status", Value: string(h.Status), Inline: true},
	}

	if h.Reason != "" {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   "Reason",
			Value:  h.Reason,
			Inline: false,
		})
	}

	return toField(fmt.Sprintf("Service: %s", h.Name), inlineFields)
}

func (d *discordSender) buildMissingField(m relationship.MissingFile) Field {
	inlineFields := []DiscordEmbedsField{
		{Name: "Owner", Value: fmt.Sprintf("%s %s", m.Kind, m.OwnerID), Inline: true},
		{Name: "Source", Value: m.Source, Inline: true},
		{Name: "Path", Value: m.Path, Inline: false},
	}

	if m.OutsideRoots {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   "Note",
			Value:  "outside scanned roots, check path mapping",
			Inline: false,
		})
	}

	return toField("Missing file", inlineFields)
}

func (d *discordSender) buildFooter(progress int, totalFields int, runTime string) string {
	if totalFields == 0 {
		return fmt.Sprintf("Took: %s", runTime)
	}

	return fmt.Sprintf("Progress: %d/%d | Took: %s", progress, totalFields, runTime)
}

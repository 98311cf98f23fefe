package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"

	"midloop/content"
	"midloop/format"
)

// EmailNotifier handles sending email notifications
type EmailNotifier struct {
	config       EmailConfig
	logger       *zap.Logger
	htmlTemplate *template.Template
	sender       gomail.Sender
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	Username       string
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// Enabled reports whether there is somewhere to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.RecipientEmail != ""
}

var digestTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>midloop - Releases This Week</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #e50914; }
        h2 { color: #0071c5; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .today { background-color: #fff3e0; font-weight: bold; }
        .bookmarked { color: #e50914; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
        .count { font-weight: bold; color: #e50914; }
    </style>
</head>
<body>
    <h1>midloop - Releases This Week</h1>
    <p>Digest generated on {{.Date}}.</p>
    <p>Releases in the next seven days: <span class="count">{{.Total}}</span></p>

    {{range .Sections}}{{if .Releases}}
    <h2>{{.Title}} ({{len .Releases}})</h2>
    <table>
        <tr>
            <th>Title</th>
            <th>Release</th>
            <th>When</th>
            <th>Rating</th>
        </tr>
        {{range .Releases}}
        <tr{{if .Today}} class="today"{{end}}>
            <td>{{if .Bookmarked}}<span class="bookmarked">&#9733;</span> {{end}}{{.Item.Title}}</td>
            <td>{{.Date}}</td>
            <td>{{.When}}</td>
            <td>{{.Rating}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}{{end}}

    <div class="footer">
        <p>This is an automated email from midloop. Please do not reply.</p>
    </div>
</body>
</html>
`))

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig, logger *zap.Logger) (*EmailNotifier, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("email notifications need an SMTP host and a recipient")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}
	if config.Username == "" {
		config.Username = "api"
	}
	return &EmailNotifier{
		config:       config,
		logger:       logger.Named("notifier"),
		htmlTemplate: digestTemplate,
	}, nil
}

// WithSender replaces SMTP delivery, for tests.
func (n *EmailNotifier) WithSender(s gomail.Sender) *EmailNotifier {
	n.sender = s
	return n
}

// Release is one digest row.
type Release struct {
	Item       content.StandardItem
	Date       string
	When       string
	Rating     string
	Today      bool
	Bookmarked bool
}

type Section struct {
	Type     content.ContentType
	Title    string
	Releases []Release
}

// Digest groups this week's releases by content type.
type Digest struct {
	Date     string
	Total    int
	Sections []Section
}

// BuildDigest picks the items releasing today or counting down and groups
// them by type, soonest first.
func BuildDigest(items []content.StandardItem, bookmarked map[string]bool, now time.Time) Digest {
	sections := []Section{
		{Type: content.TypeMovie, Title: "Movies"},
		{Type: content.TypeTVShow, Title: "TV Shows"},
		{Type: content.TypeGame, Title: "Games"},
	}
	index := map[content.ContentType]int{content.TypeMovie: 0, content.TypeTVShow: 1, content.TypeGame: 2}

	total := 0
	for _, item := range items {
		status := format.CardDateStatus(item.ReleaseDate, now)
		countdown := content.CountdownStatus(item.ReleaseDate, now)
		if !status.IsToday && !countdown.IsCountdown {
			continue
		}
		i, ok := index[item.Type()]
		if !ok {
			continue
		}

		when := format.ReleaseBadgeText(string(item.Type()), status.IsToday)
		switch {
		case when != "":
		case status.IsToday:
			when = "Today"
		case *countdown.DaysUntil == 1:
			when = "Tomorrow"
		default:
			when = fmt.Sprintf("In %d days", *countdown.DaysUntil)
		}

		sections[i].Releases = append(sections[i].Releases, Release{
			Item:       item,
			Date:       format.DateDisplay(item.ReleaseDate, format.DateFull),
			When:       when,
			Rating:     format.RatingDisplay(item.Rating, item.RatingMax),
			Today:      status.IsToday,
			Bookmarked: bookmarked[item.Key()],
		})
		total++
	}

	for i := range sections {
		sortByDate(sections[i].Releases)
	}

	return Digest{
		Date:     now.Format("January 2, 2006 at 3:04 PM"),
		Total:    total,
		Sections: sections,
	}
}

func sortByDate(rs []Release) {
	key := func(r Release) string {
		if r.Item.ReleaseDate == nil {
			return ""
		}
		return *r.Item.ReleaseDate
	}
	sort.SliceStable(rs, func(i, j int) bool { return key(rs[i]) < key(rs[j]) })
}

// NotifyReleases mails the digest of this week's releases. Nothing is sent
// when nothing is releasing.
func (n *EmailNotifier) NotifyReleases(items []content.StandardItem, bookmarked map[string]bool, now time.Time) error {
	digest := BuildDigest(items, bookmarked, now)
	if digest.Total == 0 {
		n.logger.Info("no releases this week, skipping digest")
		return nil
	}

	var emailBody bytes.Buffer
	if err := n.htmlTemplate.Execute(&emailBody, digest); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.config.SenderEmail)
	m.SetHeader("To", n.config.RecipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("midloop: %d releases this week (%d movies, %d TV shows, %d games)",
		digest.Total, len(digest.Sections[0].Releases), len(digest.Sections[1].Releases), len(digest.Sections[2].Releases)))

	plainText := fmt.Sprintf(
		"midloop release digest\n\n"+
			"Generated on %s.\n"+
			"Releases in the next seven days: %d\n\n"+
			"This is an automated email from midloop. Please do not reply.",
		digest.Date, digest.Total)

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", emailBody.String())

	if err := n.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("release digest sent",
		zap.String("recipient", n.config.RecipientEmail),
		zap.Int("releases", digest.Total))
	return nil
}

func (n *EmailNotifier) send(m *gomail.Message) error {
	if n.sender != nil {
		return gomail.Send(n.sender, m)
	}
	d := gomail.NewDialer(n.config.SMTPHost, n.config.SMTPPort, n.config.Username, n.config.SenderPassword)
	return d.DialAndSend(m)
}

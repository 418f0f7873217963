package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/kkkkikiki/textclaim/internal/model"
)

const copiedLayout = "2006-01-02 15:04:05 MST"

var summaryTemplate = template.Must(template.New("summary").Parse(`
<h2>Assignment Completed</h2>
<p><strong>User Email:</strong> {{.UserEmail}}</p>
<p><strong>Campaign:</strong> {{.CampaignName}}</p>
<h3>Assigned Texts:</h3>
<ul>
{{- range .Items}}
<li>
<strong>{{.ProductName}} (Option #{{.OptionNumber}}):</strong><br/>
{{.Content}}<br/>
<em>Copied: {{.Copied}}</em>
</li>
{{- end}}
</ul>
`))

type summaryItem struct {
	ProductName  string
	OptionNumber int
	Content      string
	Copied       string
}

type summaryData struct {
	UserEmail    string
	CampaignName string
	Items        []summaryItem
}

// FormatSummary renders the HTML body listing every linked product with its
// text and copy time. Values are HTML-escaped.
func FormatSummary(req Request, links []model.AssignmentTextDetail) (string, error) {
	data := summaryData{
		UserEmail:    "Not provided",
		CampaignName: req.CampaignName,
		Items:        make([]summaryItem, 0, len(links)),
	}
	if req.UserEmail != "" {
		data.UserEmail = req.UserEmail
	}

	for _, link := range links {
		data.Items = append(data.Items, summaryItem{
			ProductName:  link.ProductName,
			OptionNumber: link.OptionNumber,
			Content:      link.Content,
			Copied:       copiedLabel(link.CopiedAt),
		})
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

func copiedLabel(at *time.Time) string {
	if at == nil {
		return "Not copied"
	}
	return at.UTC().Format(copiedLayout)
}

// Subject returns the email subject for a completed assignment
func Subject(campaignName string) string {
	return "Assignment Completed: " + campaignName
}

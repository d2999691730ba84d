package sink

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/property-research-cli/internal/model"
)

// pageCreator is the slice of the Notion API the sink needs; tests swap in a
// mock.
type pageCreator interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type notionPages struct {
	inner *notionapi.Client
}

func (c *notionPages) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return c.inner.Page.Create(ctx, req)
}

// NotionSink appends one page per finished record to a Notion database.
type NotionSink struct {
	pages      pageCreator
	databaseID string
}

// NewNotion creates a Notion sink writing into the given database.
func NewNotion(token, databaseID string) *NotionSink {
	return &NotionSink{
		pages:      &notionPages{inner: notionapi.NewClient(notionapi.Token(token))},
		databaseID: databaseID,
	}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Write(ctx context.Context, rec *model.ResearchRecord) error {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: notionapi.Properties{
			"Address": notionapi.TitleProperty{
				Title: richText(rec.Address),
			},
			"Owner": notionapi.RichTextProperty{
				RichText: richText(rec.OwnerName),
			},
			"Owner Type": notionapi.RichTextProperty{
				RichText: richText(string(rec.OwnerType)),
			},
			"Confidence": notionapi.RichTextProperty{
				RichText: richText(string(rec.OwnerConfidence)),
			},
			"Contact Number": notionapi.RichTextProperty{
				RichText: richText(rec.ContactNumber),
			},
			"Errors": notionapi.RichTextProperty{
				RichText: richText(strings.Join(rec.Errors, "; ")),
			},
		},
	}

	if _, err := s.pages.CreatePage(ctx, req); err != nil {
		return eris.Wrap(err, "notion: create page")
	}
	return nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{
		Text: &notionapi.Text{Content: content},
	}}
}
